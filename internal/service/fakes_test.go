package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/lumapress/panel-service/internal/apperrors"
	"github.com/lumapress/panel-service/internal/config"
	"github.com/lumapress/panel-service/internal/domain"
	"github.com/lumapress/panel-service/pkg/delivery"
	"github.com/lumapress/panel-service/pkg/token"
)

var errNotFound = errors.New("not found")

// fakeRegRepo is an in-memory RegistrationRepository.
type fakeRegRepo struct {
	mu   sync.Mutex
	regs map[uuid.UUID]*domain.PendingRegistration
}

func newFakeRegRepo() *fakeRegRepo {
	return &fakeRegRepo{regs: make(map[uuid.UUID]*domain.PendingRegistration)}
}

func (r *fakeRegRepo) Upsert(_ context.Context, reg *domain.PendingRegistration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, existing := range r.regs {
		if existing.Email == reg.Email {
			reg.ID = id
			r.regs[id] = reg
			return nil
		}
	}
	r.regs[reg.ID] = reg
	return nil
}

func (r *fakeRegRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.PendingRegistration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.regs[id]
	if !ok {
		return nil, errNotFound
	}
	copied := *reg
	return &copied, nil
}

func (r *fakeRegRepo) GetByEmail(_ context.Context, email string) (*domain.PendingRegistration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reg := range r.regs {
		if reg.Email == email {
			copied := *reg
			return &copied, nil
		}
	}
	return nil, errNotFound
}

func (r *fakeRegRepo) GetBySlug(_ context.Context, slug string, excludeID uuid.UUID) (*domain.PendingRegistration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, reg := range r.regs {
		if reg.ID == excludeID || reg.AccountSlug == nil || reg.Expired(now) {
			continue
		}
		if *reg.AccountSlug == slug {
			copied := *reg
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeRegRepo) Update(_ context.Context, reg *domain.PendingRegistration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.regs[reg.ID]; !ok {
		return errNotFound
	}
	copied := *reg
	r.regs[reg.ID] = &copied
	return nil
}

func (r *fakeRegRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.regs, id)
	return nil
}

// fakeOTPRepo mirrors the conditional-update semantics of the postgres
// implementation.
type fakeOTPRepo struct {
	mu         sync.Mutex
	challenges map[uuid.UUID]*domain.OTPChallenge // keyed by registration ID
}

func newFakeOTPRepo() *fakeOTPRepo {
	return &fakeOTPRepo{challenges: make(map[uuid.UUID]*domain.OTPChallenge)}
}

func (r *fakeOTPRepo) Replace(_ context.Context, c *domain.OTPChallenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *c
	r.challenges[c.RegistrationID] = &copied
	return nil
}

func (r *fakeOTPRepo) GetByRegistration(_ context.Context, registrationID uuid.UUID) (*domain.OTPChallenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.challenges[registrationID]
	if !ok {
		return nil, errNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *fakeOTPRepo) MarkVerified(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.challenges {
		if c.ID == id {
			if c.Verified || c.Attempts >= domain.MaxOTPAttempts {
				return false, nil
			}
			c.Verified = true
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeOTPRepo) IncrementAttempts(_ context.Context, id uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.challenges {
		if c.ID == id {
			if c.Verified || c.Attempts >= domain.MaxOTPAttempts {
				return 0, nil
			}
			c.Attempts++
			return c.Attempts, nil
		}
	}
	return 0, nil
}

func (r *fakeOTPRepo) DeleteByRegistration(_ context.Context, registrationID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.challenges, registrationID)
	return nil
}

// fakeUserRepo is an in-memory UserRepository.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, errNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, errNotFound
}

func (r *fakeUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return errNotFound
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		now := time.Now()
		u.LastLoginAt = &now
	}
	return nil
}

func (r *fakeUserRepo) IncrementFailedLogins(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.FailedLogins++
	}
	return nil
}

func (r *fakeUserRepo) ResetFailedLogins(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.FailedLogins = 0
		u.LockedUntil = nil
	}
	return nil
}

func (r *fakeUserRepo) put(u *domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *u
	r.users[u.ID] = &copied
}

// fakeAccountRepo is an in-memory AccountRepository.
type fakeAccountRepo struct {
	mu            sync.Mutex
	accounts      map[uuid.UUID]*domain.Account
	members       map[uuid.UUID][]*domain.AccountMember
	subscriptions map[uuid.UUID]*domain.Subscription
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{
		accounts:      make(map[uuid.UUID]*domain.Account),
		members:       make(map[uuid.UUID][]*domain.AccountMember),
		subscriptions: make(map[uuid.UUID]*domain.Subscription),
	}
}

func (r *fakeAccountRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, errNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *fakeAccountRepo) GetBySlug(_ context.Context, slug string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Slug == slug {
			copied := *a
			return &copied, nil
		}
	}
	return nil, errNotFound
}

func (r *fakeAccountRepo) SlugExists(_ context.Context, slug string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeAccountRepo) GetMember(_ context.Context, accountID, userID uuid.UUID) (*domain.AccountMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members[accountID] {
		if m.UserID == userID {
			copied := *m
			return &copied, nil
		}
	}
	return nil, errNotFound
}

func (r *fakeAccountRepo) ListMembers(_ context.Context, accountID uuid.UUID) ([]*domain.AccountMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.AccountMember, 0, len(r.members[accountID]))
	for _, m := range r.members[accountID] {
		copied := *m
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeAccountRepo) UpdateMember(_ context.Context, member *domain.AccountMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.members[member.AccountID] {
		if m.UserID == member.UserID {
			copied := *member
			r.members[member.AccountID][i] = &copied
			return nil
		}
	}
	return errNotFound
}

func (r *fakeAccountRepo) GetSubscription(_ context.Context, accountID uuid.UUID) (*domain.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subscriptions[accountID]
	if !ok {
		return nil, errNotFound
	}
	copied := *s
	return &copied, nil
}

// fakeRoleRepo is an in-memory RoleRepository.
type fakeRoleRepo struct {
	mu    sync.Mutex
	roles map[uuid.UUID]*domain.Role
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{roles: make(map[uuid.UUID]*domain.Role)}
}

func (r *fakeRoleRepo) Create(_ context.Context, role *domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *role
	r.roles[role.ID] = &copied
	return nil
}

func (r *fakeRoleRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.roles[id]
	if !ok {
		return nil, errNotFound
	}
	copied := *role
	return &copied, nil
}

func (r *fakeRoleRepo) ListByAccount(_ context.Context, accountID uuid.UUID) ([]*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Role
	for _, role := range r.roles {
		if role.AccountID == accountID {
			copied := *role
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeRoleRepo) Update(_ context.Context, role *domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.roles[role.ID]; !ok {
		return errNotFound
	}
	copied := *role
	r.roles[role.ID] = &copied
	return nil
}

func (r *fakeRoleRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if role, ok := r.roles[id]; ok && role.IsSystemRole {
		return errNotFound
	}
	delete(r.roles, id)
	return nil
}

// fakePlanRepo is an in-memory PlanRepository seeded with a catalog.
type fakePlanRepo struct {
	plans []*domain.Plan
}

func newFakePlanRepo(plans ...*domain.Plan) *fakePlanRepo {
	return &fakePlanRepo{plans: plans}
}

func (r *fakePlanRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Plan, error) {
	for _, p := range r.plans {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, errNotFound
}

func (r *fakePlanRepo) GetByCode(_ context.Context, code string) (*domain.Plan, error) {
	for _, p := range r.plans {
		if p.Code == code && p.Active {
			return p, nil
		}
	}
	return nil, errNotFound
}

func (r *fakePlanRepo) ListActive(_ context.Context) ([]*domain.Plan, error) {
	var out []*domain.Plan
	for _, p := range r.plans {
		if p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

// fakeSessionRepo is an in-memory SessionRepository.
type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*domain.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[uuid.UUID]*domain.Session)}
}

func (r *fakeSessionRepo) Create(_ context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *s
	r.sessions[s.ID] = &copied
	return nil
}

func (r *fakeSessionRepo) GetByTokenHash(_ context.Context, tokenHash string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.RefreshTokenHash == tokenHash {
			copied := *s
			return &copied, nil
		}
	}
	return nil, errNotFound
}

func (r *fakeSessionRepo) GetByUserID(_ context.Context, userID uuid.UUID) ([]*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Session
	for _, s := range r.sessions {
		if s.UserID == userID {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) Update(_ context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ID]; !ok {
		return errNotFound
	}
	copied := *s
	r.sessions[s.ID] = &copied
	return nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func (r *fakeSessionRepo) DeleteByTokenHash(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		if s.RefreshTokenHash == tokenHash {
			delete(r.sessions, id)
		}
	}
	return nil
}

// fakeProvisionRepo mimics the all-or-nothing finalize transaction against
// the other fakes. Uniqueness of email and slug is checked up front; on any
// conflict nothing is written.
type fakeProvisionRepo struct {
	users    *fakeUserRepo
	accounts *fakeAccountRepo
	roles    *fakeRoleRepo
	regs     *fakeRegRepo
	otps     *fakeOTPRepo
}

func (r *fakeProvisionRepo) CreateTenant(ctx context.Context, graph *domain.TenantGraph) error {
	if exists, _ := r.users.ExistsByEmail(ctx, graph.User.Email); exists {
		return apperrors.Conflict("a user with this email already exists")
	}
	if taken, _ := r.accounts.SlugExists(ctx, graph.Account.Slug); taken {
		return apperrors.Conflict("slug is already taken")
	}

	r.users.put(graph.User)

	r.accounts.mu.Lock()
	accountCopy := *graph.Account
	r.accounts.accounts[graph.Account.ID] = &accountCopy
	memberCopy := *graph.Membership
	r.accounts.members[graph.Account.ID] = []*domain.AccountMember{&memberCopy}
	if graph.Subscription != nil {
		subCopy := *graph.Subscription
		r.accounts.subscriptions[graph.Account.ID] = &subCopy
	}
	r.accounts.mu.Unlock()

	_ = r.roles.Create(ctx, graph.OwnerRole)

	r.users.mu.Lock()
	if u, ok := r.users.users[graph.User.ID]; ok {
		accountID := graph.Account.ID
		u.LastAccountID = &accountID
	}
	r.users.mu.Unlock()

	_ = r.otps.DeleteByRegistration(ctx, graph.RegistrationID)
	_ = r.regs.Delete(ctx, graph.RegistrationID)
	return nil
}

// recordingSender captures delivered codes.
type recordingSender struct {
	mu    sync.Mutex
	calls []deliveredCode
}

type deliveredCode struct {
	Channel     delivery.Channel
	Destination string
	Code        string
}

func (s *recordingSender) SendCode(_ context.Context, channel delivery.Channel, destination, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, deliveredCode{Channel: channel, Destination: destination, Code: code})
	return nil
}

func (s *recordingSender) last() (deliveredCode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		return deliveredCode{}, false
	}
	return s.calls[len(s.calls)-1], true
}

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			MaxFailedLogins: 5,
			LockDuration:    15 * time.Minute,
		},
		Token: config.TokenConfig{
			AccessTokenExpiry:  15 * time.Minute,
			RefreshTokenExpiry: 7 * 24 * time.Hour,
			Issuer:             "panel-service-test",
		},
		Registration: config.RegistrationConfig{
			TTL:                7 * 24 * time.Hour,
			OTPTTL:             10 * time.Minute,
			SubscriptionPeriod: 30 * 24 * time.Hour,
		},
	}
}

// testTokenService builds a token service around a throwaway RSA key.
func testTokenService(t *testing.T, cfg *config.Config) *token.Service {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: pubDER,
	})

	svc, err := token.NewService(privPEM, pubPEM, cfg.Token.AccessTokenExpiry, cfg.Token.RefreshTokenExpiry, cfg.Token.Issuer)
	require.NoError(t, err)
	return svc
}

// testEnv wires the full service graph against the fakes.
type testEnv struct {
	cfg      *config.Config
	regRepo  *fakeRegRepo
	otpRepo  *fakeOTPRepo
	userRepo *fakeUserRepo
	accRepo  *fakeAccountRepo
	roleRepo *fakeRoleRepo
	planRepo *fakePlanRepo
	sessRepo *fakeSessionRepo
	sender   *recordingSender
	plan     *domain.Plan
	regSvc   *RegistrationService
	otpSvc   *OtpService
	provSvc  *ProvisionService
	authzSvc *AuthzService
	tokenSvc *token.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := testConfig()
	plan := &domain.Plan{ID: uuid.New(), Code: "pro", Name: "Pro", PriceCents: 2900, Active: true}

	env := &testEnv{
		cfg:      cfg,
		regRepo:  newFakeRegRepo(),
		otpRepo:  newFakeOTPRepo(),
		userRepo: newFakeUserRepo(),
		accRepo:  newFakeAccountRepo(),
		roleRepo: newFakeRoleRepo(),
		planRepo: newFakePlanRepo(plan),
		sessRepo: newFakeSessionRepo(),
		sender:   &recordingSender{},
		plan:     plan,
	}

	env.tokenSvc = testTokenService(t, cfg)
	env.regSvc = NewRegistrationService(env.regRepo, env.otpRepo, env.userRepo, env.accRepo, env.planRepo, cfg)
	env.otpSvc = NewOtpService(env.otpRepo, env.regSvc, env.regRepo, env.sender, cfg)
	provRepo := &fakeProvisionRepo{
		users:    env.userRepo,
		accounts: env.accRepo,
		roles:    env.roleRepo,
		regs:     env.regRepo,
		otps:     env.otpRepo,
	}
	env.provSvc = NewProvisionService(provRepo, env.regSvc, env.userRepo, env.planRepo, env.sessRepo, env.tokenSvc, cfg)
	env.authzSvc = NewAuthzService(env.userRepo, env.accRepo, env.roleRepo)

	return env
}
