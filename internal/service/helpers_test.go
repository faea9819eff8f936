package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/authservice/internal/config"
	"github.com/Skotchmaster/authservice/internal/db/dbtest"
	"github.com/Skotchmaster/authservice/internal/hash"
	"github.com/Skotchmaster/authservice/internal/models"
	"github.com/Skotchmaster/authservice/internal/notify"
	"github.com/Skotchmaster/authservice/internal/repo"
	"github.com/Skotchmaster/authservice/internal/tokens"
)

const testPassword = "correct-horse"

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type captureNotifier struct {
	mu   sync.Mutex
	msgs []notify.Message
	err  error
}

func (n *captureNotifier) Send(ctx context.Context, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
	return n.err
}

func (n *captureNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.msgs)
}

func (n *captureNotifier) last(t *testing.T) notify.Message {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.msgs, "no message sent")
	return n.msgs[len(n.msgs)-1]
}

type capturePublisher struct {
	mu    sync.Mutex
	kinds []string
}

func (p *capturePublisher) PublishEvent(ctx context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := event.(userEvent); ok {
		p.kinds = append(p.kinds, e.Type)
	}
	return nil
}

type harness struct {
	cfg      *config.Config
	clock    *clock
	repo     *repo.GormRepo
	auth     *AuthService
	accounts *AccountService
	notifier *captureNotifier
	events   *capturePublisher
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:            "test-secret",
		AccessTTL:            5 * time.Minute,
		RefreshTTL:           24 * time.Hour,
		BlacklistEnabled:     true,
		BlacklistTTL:         24 * time.Hour,
		EmailVerificationTTL: 24 * time.Hour,
		PasswordResetTTL:     6 * time.Hour,
		FrontendURL:          "http://frontend.test",
		StoreTimeout:         2 * time.Second,
	}

	clk := &clock{t: time.Now().UTC().Truncate(time.Second)}

	r := repo.New(dbtest.New(t), cfg.StoreTimeout)
	r.Now = clk.Now

	codec, err := tokens.NewCodec(cfg.SigningSecret())
	require.NoError(t, err)

	hasher, err := hash.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)

	pub := &capturePublisher{}
	events := &Events{Publisher: pub, Topic: "user_events"}
	auth := &AuthService{
		Repo:   r,
		Codec:  codec.WithClock(clk.Now),
		Hasher: hasher,
		Cfg:    cfg,
		Events: events,
		Now:    clk.Now,
	}
	n := &captureNotifier{}
	return &harness{
		cfg:   cfg,
		clock: clk,
		repo:  r,
		auth:  auth,
		accounts: &AccountService{
			Repo:     r,
			Hasher:   hasher,
			Notifier: n,
			Auth:     auth,
			Cfg:      cfg,
			Events:   events,
		},
		notifier: n,
		events:   pub,
	}
}

// tokenFromLink pulls the path segment after marker out of an email body.
func tokenFromLink(t *testing.T, body, marker string) string {
	t.Helper()
	i := strings.Index(body, marker+"/")
	require.GreaterOrEqual(t, i, 0, "no %s link in %q", marker, body)
	fields := strings.Fields(body[i+len(marker)+1:])
	require.NotEmpty(t, fields)
	return fields[0]
}

// registerVerified creates an account and completes email verification.
func (h *harness) registerVerified(t *testing.T, email string) *models.Account {
	t.Helper()
	ctx := context.Background()

	acc, err := h.accounts.Register(ctx, email, testPassword, testPassword)
	require.NoError(t, err)

	token := tokenFromLink(t, h.notifier.last(t).Body, "verify-email")
	require.NoError(t, h.accounts.VerifyEmail(ctx, token))
	return acc
}
