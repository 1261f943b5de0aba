package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/suite"

	"github.com/goserg/clubconnect/internal/apperr"
	"github.com/goserg/clubconnect/internal/config"
	"github.com/goserg/clubconnect/internal/domain"
	"github.com/goserg/clubconnect/internal/session"
)

type AppSuite struct {
	suite.Suite
	mr     *miniredis.Miniredis
	cfg    config.Config
	logger *logrus.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func TestAppSQLite(t *testing.T) {
	suite.Run(t, &AppSuite{})
}

func TestAppSQLiteRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	s := &AppSuite{mr: mr}
	s.cfg.Redis.Addr = mr.Addr()
	s.cfg.Redis.Prefix = "test:"
	suite.Run(t, s)
}

func (s *AppSuite) SetupTest() {
	if s.mr != nil {
		s.mr.FlushAll()
	}
	s.logger, _ = test.NewNullLogger()
	s.cfg.Storage.SQLiteFile = filepath.Join(s.T().TempDir(), "clubconnect.sqlite")
	s.cfg.Identity.TokenSecret = "secret"
	s.cfg.Identity.SignInBurst = 0
	s.ctx, s.cancel = context.WithTimeout(context.Background(), 10*time.Second)
}

func (s *AppSuite) TearDownTest() {
	s.cancel()
}

func (s *AppSuite) open() *App {
	a, err := New(s.ctx, s.logger, s.cfg)
	s.Require().NoError(err)
	s.Require().NoError(a.Start(s.ctx))
	return a
}

func (s *AppSuite) seed(a *App) domain.Event {
	c, err := a.Clubs.Create(s.ctx, domain.NewClub{Name: "Tech Club", Description: "Robots", Category: domain.CategoryTechnical})
	s.Require().NoError(err)
	e, err := a.Events.Create(s.ctx, domain.NewEvent{
		Title:       "Robot Night",
		Description: "Build a robot",
		Date:        domain.DateOf(time.Now()).AddDays(3),
		Time:        "18:00",
		Location:    "Lab 2",
		ClubID:      c.ID,
		ClubName:    c.Name,
		Category:    domain.TypeWorkshop,
	})
	s.Require().NoError(err)
	return e
}

func (s *AppSuite) TestGuestThenMember() {
	a := s.open()
	defer a.Close()
	e := s.seed(a)

	s.Eventually(func() bool { return len(a.Feed.Upcoming()) == 1 }, time.Second, 5*time.Millisecond)
	s.Require().NoError(a.Saved.Save(s.ctx, e.ID))
	s.Eventually(func() bool { return len(a.Feed.Saved()) == 1 }, time.Second, 5*time.Millisecond)
	s.ErrorIs(a.Saved.Register(s.ctx, e.ID), apperr.ErrAuthRequired)

	_, err := a.Session.Register(s.ctx, "ada@campus.edu", "secret1", session.RegisterFields{FullName: "Ada", RollNo: "42"})
	s.Require().NoError(err)
	s.Equal(session.Authenticated, a.Session.State())
	s.True(a.Saved.IsSaved(e.ID))

	s.Require().NoError(a.Saved.Register(s.ctx, e.ID))
	s.Eventually(func() bool {
		reg := a.Feed.Registered()
		return len(reg) == 1 && reg[0].RegistrationCount == 1
	}, time.Second, 5*time.Millisecond)

	regs, err := a.Events.ListRegistrations(s.ctx, e.ID)
	s.Require().NoError(err)
	s.Require().Len(regs, 1)
	s.Equal("Ada", regs[0].UserName)
}

func (s *AppSuite) TestSessionSurvivesRestart() {
	a := s.open()
	e := s.seed(a)
	_, err := a.Session.Register(s.ctx, "ada@campus.edu", "secret1", session.RegisterFields{FullName: "Ada", RollNo: "42"})
	s.Require().NoError(err)
	s.Require().NoError(a.Saved.Save(s.ctx, e.ID))
	a.Close()

	b := s.open()
	defer b.Close()
	s.Equal(session.Authenticated, b.Session.State())
	u := b.Session.User()
	s.Require().NotNil(u)
	s.Equal("42", u.RollNo)
	s.Equal([]string{e.ID}, b.Saved.SavedIDs())
	s.Len(b.Feed.Saved(), 1)

	s.Require().NoError(b.Session.Logout(s.ctx))
	s.Equal(session.Anonymous, b.Session.State())
	s.Empty(b.Feed.Saved())
}

func (s *AppSuite) TestSearch() {
	a := s.open()
	defer a.Close()
	for _, name := range []string{"Tech Club", "Arts Club", "Technovate"} {
		_, err := a.Clubs.Create(s.ctx, domain.NewClub{Name: name, Description: "-", Category: domain.CategoryOther})
		s.Require().NoError(err)
	}
	found, err := a.Clubs.Search(s.ctx, "tech")
	s.Require().NoError(err)
	s.Require().Len(found, 2)
	s.Equal("Tech Club", found[0].Name)
	s.Equal("Technovate", found[1].Name)
}

func (s *AppSuite) TestBadConfig() {
	cfg := s.cfg
	cfg.Identity.TokenSecret = ""
	_, err := New(s.ctx, s.logger, cfg)
	s.Error(err)
}
