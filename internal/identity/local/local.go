// Package local is a self-hosted identity provider. Accounts live in the
// document store, the signed-in session survives restarts through a signed
// token kept in the local key-value store.
package local

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/goserg/clubconnect/internal/docstore"
	"github.com/goserg/clubconnect/internal/identity"
	"github.com/goserg/clubconnect/internal/kvstore"
	"github.com/goserg/clubconnect/internal/validate"
)

const (
	collection = "identities"
	sessionKey = "session"
)

type account struct {
	Email         string    `json:"email"`
	DisplayName   string    `json:"displayName"`
	EmailVerified bool      `json:"emailVerified"`
	PasswordHash  string    `json:"passwordHash"`
	Disabled      bool      `json:"disabled"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (a account) identity(id string) identity.Identity {
	return identity.Identity{
		ID:            id,
		Email:         a.Email,
		DisplayName:   a.DisplayName,
		EmailVerified: a.EmailVerified,
	}
}

type Provider struct {
	docs     docstore.Store
	kv       kvstore.Store
	cfg      Config
	notifier Notifier
	limiter  *rate.Limiter
	log      *logrus.Entry

	mu        sync.Mutex
	current   *identity.Identity
	listeners map[int]identity.Listener
	nextID    int

	// deliver keeps listener calls in transition order.
	deliver sync.Mutex
}

var _ identity.Provider = (*Provider)(nil)

// New restores the previous session, if its token is still valid.
func New(ctx context.Context, l *logrus.Logger, cfg Config, docs docstore.Store, kv kvstore.Store, n Notifier) (*Provider, error) {
	if cfg.TokenSecret == "" {
		return nil, errors.New("identity: empty token secret")
	}
	cfg = cfg.withDefaults()
	p := &Provider{
		docs:      docs,
		kv:        kv,
		cfg:       cfg,
		notifier:  n,
		log:       l.WithFields(map[string]interface{}{"from": "identity"}),
		listeners: make(map[int]identity.Listener),
	}
	if cfg.SignInBurst > 0 {
		p.limiter = rate.NewLimiter(rate.Every(cfg.SignInInterval), cfg.SignInBurst)
	}
	if err := p.restore(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Provider) restore(ctx context.Context) error {
	raw, ok, err := p.kv.Get(ctx, sessionKey)
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}
	if !ok {
		return nil
	}
	id, err := p.parseToken(raw, audienceSession)
	if err != nil {
		p.log.WithError(err).Info("stored session dropped")
		return p.kv.Delete(ctx, sessionKey)
	}
	acc, err := p.account(ctx, id)
	if errors.Is(err, docstore.ErrNotFound) {
		p.log.WithField("id", id).Info("stored session has no account")
		return p.kv.Delete(ctx, sessionKey)
	}
	if err != nil {
		return err
	}
	cur := acc.identity(id)
	p.current = &cur
	p.log.WithField("email", cur.Email).Info("session restored")
	return nil
}

func (p *Provider) CreateIdentity(ctx context.Context, email, password string) (identity.Identity, error) {
	email = normalizeEmail(email)
	if !validate.Email(email) {
		return identity.Identity{}, identity.NewError(identity.CodeInvalidEmail)
	}
	if len(password) < validate.MinPasswordLength {
		return identity.Identity{}, identity.NewError(identity.CodeWeakPassword)
	}
	_, _, err := p.findByEmail(ctx, email)
	if err == nil {
		return identity.Identity{}, identity.NewError(identity.CodeEmailInUse)
	}
	if !isCode(err, identity.CodeUserNotFound) {
		return identity.Identity{}, err
	}
	hash, err := p.hash(password)
	if err != nil {
		return identity.Identity{}, err
	}
	acc := account{
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	data, err := docstore.Encode(acc)
	if err != nil {
		return identity.Identity{}, err
	}
	id, err := p.docs.Add(ctx, collection, data)
	if err != nil {
		return identity.Identity{}, err
	}
	p.log.WithField("email", email).Info("identity created")

	created := acc.identity(id)
	if err := p.signedIn(ctx, created); err != nil {
		return identity.Identity{}, err
	}
	return created, nil
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (identity.Identity, error) {
	email = normalizeEmail(email)
	if !validate.Email(email) {
		return identity.Identity{}, identity.NewError(identity.CodeInvalidEmail)
	}
	if password == "" {
		return identity.Identity{}, identity.NewError(identity.CodeMissingPassword)
	}
	if p.limiter != nil && !p.limiter.Allow() {
		return identity.Identity{}, identity.NewError(identity.CodeTooManyRequests)
	}
	id, acc, err := p.findByEmail(ctx, email)
	if err != nil {
		return identity.Identity{}, err
	}
	if acc.Disabled {
		return identity.Identity{}, identity.NewError(identity.CodeUserDisabled)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), p.prehash(password)); err != nil {
		return identity.Identity{}, withCode(identity.CodeWrongPassword, err)
	}

	signed := acc.identity(id)
	if err := p.signedIn(ctx, signed); err != nil {
		return identity.Identity{}, err
	}
	return signed, nil
}

func (p *Provider) SignOut(ctx context.Context) error {
	if err := p.kv.Delete(ctx, sessionKey); err != nil {
		return err
	}
	p.transition(nil)
	return nil
}

func (p *Provider) SendPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if !validate.Email(email) {
		return identity.NewError(identity.CodeInvalidEmail)
	}
	id, _, err := p.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	code, err := p.signToken(id, audienceReset, p.cfg.ActionCodeTTL)
	if err != nil {
		return err
	}
	return p.notifier.PasswordReset(ctx, email, code)
}

// ConfirmPasswordReset sets a new password using a code from SendPasswordReset.
func (p *Provider) ConfirmPasswordReset(ctx context.Context, code, password string) error {
	id, err := p.parseToken(code, audienceReset)
	if err != nil {
		return err
	}
	if len(password) < validate.MinPasswordLength {
		return identity.NewError(identity.CodeWeakPassword)
	}
	hash, err := p.hash(password)
	if err != nil {
		return err
	}
	err = p.docs.Update(ctx, collection, id, docstore.Data{"passwordHash": hash})
	if errors.Is(err, docstore.ErrNotFound) {
		return identity.NewError(identity.CodeUserNotFound)
	}
	return err
}

func (p *Provider) UpdateProfile(ctx context.Context, id string, upd identity.ProfileUpdate) (identity.Identity, error) {
	cur := p.Current()
	if cur == nil || cur.ID != id {
		return identity.Identity{}, identity.NewError(identity.CodeNoCurrentUser)
	}
	patch := docstore.Data{}
	if upd.DisplayName != nil {
		patch["displayName"] = strings.TrimSpace(*upd.DisplayName)
	}
	if len(patch) > 0 {
		if err := p.docs.Update(ctx, collection, id, patch); err != nil {
			return identity.Identity{}, err
		}
	}
	acc, err := p.account(ctx, id)
	if err != nil {
		return identity.Identity{}, err
	}
	updated := acc.identity(id)

	p.mu.Lock()
	if p.current != nil && p.current.ID == id {
		p.current = &updated
	}
	p.mu.Unlock()
	return updated, nil
}

func (p *Provider) SendEmailVerification(ctx context.Context) error {
	cur := p.Current()
	if cur == nil {
		return identity.NewError(identity.CodeNoCurrentUser)
	}
	code, err := p.signToken(cur.ID, audienceVerify, p.cfg.ActionCodeTTL)
	if err != nil {
		return err
	}
	return p.notifier.EmailVerification(ctx, cur.Email, code)
}

// VerifyEmail marks the account behind a verification code as verified.
func (p *Provider) VerifyEmail(ctx context.Context, code string) error {
	id, err := p.parseToken(code, audienceVerify)
	if err != nil {
		return err
	}
	err = p.docs.Update(ctx, collection, id, docstore.Data{"emailVerified": true})
	if errors.Is(err, docstore.ErrNotFound) {
		return identity.NewError(identity.CodeUserNotFound)
	}
	if err != nil {
		return err
	}
	p.mu.Lock()
	if p.current != nil && p.current.ID == id {
		verified := *p.current
		verified.EmailVerified = true
		p.current = &verified
	}
	p.mu.Unlock()
	return nil
}

func (p *Provider) Subscribe(fn identity.Listener) func() {
	p.deliver.Lock()
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	cur := copyIdentity(p.current)
	p.mu.Unlock()
	fn(cur)
	p.deliver.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners, id)
			p.mu.Unlock()
		})
	}
}

func (p *Provider) Current() *identity.Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	return copyIdentity(p.current)
}

func (p *Provider) signedIn(ctx context.Context, id identity.Identity) error {
	token, err := p.signToken(id.ID, audienceSession, p.cfg.TokenExpiration)
	if err != nil {
		return err
	}
	if err := p.kv.Set(ctx, sessionKey, token); err != nil {
		return err
	}
	p.transition(&id)
	return nil
}

// transition publishes a sign-in or sign-out to every listener.
func (p *Provider) transition(id *identity.Identity) {
	p.deliver.Lock()
	defer p.deliver.Unlock()

	p.mu.Lock()
	p.current = copyIdentity(id)
	listeners := make([]identity.Listener, 0, len(p.listeners))
	for _, fn := range p.listeners {
		listeners = append(listeners, fn)
	}
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(copyIdentity(id))
	}
}

func (p *Provider) account(ctx context.Context, id string) (account, error) {
	doc, err := p.docs.Get(ctx, collection, id)
	if err != nil {
		return account{}, err
	}
	var acc account
	if err := doc.Decode(&acc); err != nil {
		return account{}, err
	}
	return acc, nil
}

func (p *Provider) findByEmail(ctx context.Context, email string) (string, account, error) {
	docs, err := p.docs.Query(ctx, collection,
		docstore.Where("email", docstore.OpEqual, email),
		docstore.Limit(1),
	)
	if err != nil {
		return "", account{}, err
	}
	if len(docs) == 0 {
		return "", account{}, identity.NewError(identity.CodeUserNotFound)
	}
	var acc account
	if err := docs[0].Decode(&acc); err != nil {
		return "", account{}, err
	}
	return docs[0].ID, acc, nil
}

// prehash folds the pepper in and keeps the bcrypt input under its
// 72 byte limit.
func (p *Provider) prehash(password string) []byte {
	sum := sha256.Sum256([]byte(p.cfg.PasswordPepper + password))
	return []byte(hex.EncodeToString(sum[:]))
}

func (p *Provider) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(p.prehash(password), p.cfg.HashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func copyIdentity(id *identity.Identity) *identity.Identity {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

func isCode(err error, code string) bool {
	var e *identity.Error
	return errors.As(err, &e) && e.Code() == code
}
