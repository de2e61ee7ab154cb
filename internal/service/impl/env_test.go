package impl

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/biometric"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/domain"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/dto"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/events"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/jwtsigner"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/notify"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/ratelimit"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/store"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/store/storetest"
)

const (
	testRPID   = "vote.example.edu"
	testOrigin = "https://vote.example.edu"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type capturingNotifier struct {
	mu   sync.Mutex
	msgs []notify.OTPMessage
	err  error
}

func (n *capturingNotifier) SendOTP(_ context.Context, msg notify.OTPMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.msgs = append(n.msgs, msg)
	return nil
}

func (n *capturingNotifier) last(t *testing.T) notify.OTPMessage {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.msgs, "no otp was sent")
	return n.msgs[len(n.msgs)-1]
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *capturingPublisher) ofType(typ events.Type) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, e := range p.events {
		if e.EventType() == typ {
			out = append(out, e)
		}
	}
	return out
}

type testEnv struct {
	store     *store.Store
	election  *storetest.Election
	clock     *fakeClock
	notifier  *capturingNotifier
	events    *capturingPublisher
	throttle  *ratelimit.MemoryThrottle
	guard     *SessionGuardImpl
	broker    *AuthBrokerImpl
	committer *BallotCommitterImpl
	registry  *VoterRegistryImpl
	catalog   *BallotCatalogImpl
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := storetest.New(t)
	signer, err := jwtsigner.NewFromBase64("", "test", "ballotd-test")
	require.NoError(t, err)

	env := &testEnv{
		store:    st,
		election: storetest.SeedElection(t, st),
		clock:    &fakeClock{t: time.Now().UTC()},
		notifier: &capturingNotifier{},
		events:   &capturingPublisher{},
		throttle: ratelimit.NewMemory(ratelimit.Config{MaxFailures: 5, FailureWindow: 15 * time.Minute}),
	}
	env.guard = NewSessionGuard(st, signer, 30*time.Minute)
	env.guard.now = env.clock.Now
	env.broker = NewAuthBroker(st, env.guard, env.throttle, env.notifier, env.events,
		biometric.NewVerifier(testRPID, []string{testOrigin}),
		BrokerConfig{
			OTPTTL:           10 * time.Minute,
			OTPCooldown:      time.Minute,
			OTPPepper:        []byte("test-pepper"),
			BiometricTimeout: time.Minute,
			RPID:             testRPID,
		})
	env.broker.now = env.clock.Now
	env.committer = NewBallotCommitter(st, env.guard, env.events, 5*time.Second)
	env.committer.now = env.clock.Now
	env.registry = NewVoterRegistry(st, env.events)
	env.catalog = NewBallotCatalog(st)
	return env
}

func (e *testEnv) voter(t *testing.T, matric string, verified bool) *domain.Voter {
	t.Helper()
	return storetest.SeedVoter(t, e.store, matric, verified)
}

// otpSession runs the OTP ceremony for v and returns the session token.
func (e *testEnv) otpSession(t *testing.T, v *domain.Voter) string {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.broker.SendOTP(ctx, dto.OTPSendRequest{VoterID: v.ID.String(), Email: v.Email}, "", ""))
	code := e.notifier.last(t).Code
	res, err := e.broker.VerifyOTP(ctx, dto.OTPVerifyRequest{VoterID: v.ID.String(), OTPCode: code}, "", "")
	require.NoError(t, err)
	return res.Session.Token
}

func (e *testEnv) reload(t *testing.T, id domain.VoterID) *domain.Voter {
	t.Helper()
	v, err := e.store.Voters().GetByID(context.Background(), id)
	require.NoError(t, err)
	return v
}

// session issues a session for v without running a ceremony.
func (e *testEnv) session(t *testing.T, v *domain.Voter) string {
	t.Helper()
	offered, err := domain.NewAttempt(v.ID).OfferOTP()
	require.NoError(t, err)
	done, err := offered.Authenticate()
	require.NoError(t, err)
	sess, err := e.guard.Issue(context.Background(), done, "203.0.113.7", "test-agent")
	require.NoError(t, err)
	return sess.Token
}
