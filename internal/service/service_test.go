package service

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mdhub/note-service/internal/config"
	"github.com/mdhub/note-service/internal/models"
	"github.com/mdhub/note-service/internal/repository"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeStore struct {
	users   map[int64]*models.User
	notes   map[int64][]*models.Note
	nextID  int64
	updates int
	failAll bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[int64]*models.User{}, notes: map[int64][]*models.Note{}, nextID: 1}
}

func (s *fakeStore) CreateUser(user *models.User) error {
	if s.failAll {
		return errors.New("storage down")
	}
	user.ID = s.nextID
	s.nextID++
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *fakeStore) FindUserByID(id int64) (*models.User, error) {
	if s.failAll {
		return nil, errors.New("storage down")
	}
	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *fakeStore) FindUserByEmail(email string) (*models.User, error) {
	if s.failAll {
		return nil, errors.New("storage down")
	}
	for _, user := range s.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeStore) UpdateUser(user *models.User) error {
	if s.failAll {
		return errors.New("storage down")
	}
	if _, ok := s.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	s.updates++
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *fakeStore) SetDeleteToken(userID int64, token string, setAt time.Time) error {
	if s.failAll {
		return errors.New("storage down")
	}
	user, ok := s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.DeleteToken = token
	user.DeleteTokenSetAt = setAt
	return nil
}

func (s *fakeStore) DeleteUser(id int64) error {
	if s.failAll {
		return errors.New("storage down")
	}
	if _, ok := s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.users, id)
	delete(s.notes, id)
	return nil
}

func (s *fakeStore) FindNotesByOwner(ownerID int64) ([]*models.Note, error) {
	if s.failAll {
		return nil, errors.New("storage down")
	}
	return s.notes[ownerID], nil
}

func (s *fakeStore) StaleDeleteTokenUsers(cutoff time.Time) ([]int64, error) {
	if s.failAll {
		return nil, errors.New("storage down")
	}
	var ids []int64
	for id, user := range s.users {
		if user.DeleteTokenSetAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type fakeMailer struct {
	to   string
	link string
	fail bool
}

func (m *fakeMailer) SendDeleteConfirmation(to, username, link string) error {
	if m.fail {
		return errors.New("smtp down")
	}
	m.to = to
	m.link = link
	return nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:      "test-secret",
		ServerURL:      "http://example.com",
		DeleteTokenTTL: 24,
	}
}

func newTestService(store Store, mailer Mailer) *Service {
	return NewService(store, mailer, quietLogger(), testConfig())
}

func registerUser(t *testing.T, svc *Service) *models.User {
	t.Helper()
	user, err := svc.Register("alice", "alice@example.com", "correct-horse")
	require.NoError(t, err)
	return user
}

func TestRegister_HashesPasswordAndIssuesDeleteToken(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeMailer{})

	user := registerUser(t, svc)

	require.NotEqual(t, "correct-horse", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct-horse")))
	require.NotEmpty(t, user.DeleteToken)
	require.False(t, user.DeleteTokenSetAt.IsZero())
}

func TestRegister_RejectsBadInput(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeMailer{})

	tests := []struct {
		name     string
		username string
		email    string
		password string
		field    string
	}{
		{"empty username", "", "a@b.com", "long-enough", "username"},
		{"bad email", "alice", "not-an-email", "long-enough", "email"},
		{"short password", "alice", "a@b.com", "short", "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(tt.username, tt.email, tt.password)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestLogin_IssuesTokenForUser(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeMailer{})
	user := registerUser(t, svc)

	tokenString, err := svc.Login("alice@example.com", "correct-horse")
	require.NoError(t, err)

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	subject, err := token.Claims.GetSubject()
	require.NoError(t, err)
	require.Equal(t, "1", subject)
	require.Equal(t, int64(1), user.ID)
}

func TestLogin_RejectsWrongPassword(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeMailer{})
	registerUser(t, svc)

	_, err := svc.Login("alice@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login("nobody@example.com", "correct-horse")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyPassword(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeMailer{})
	user := registerUser(t, svc)

	require.True(t, svc.VerifyPassword(user, "correct-horse"))
	require.False(t, svc.VerifyPassword(user, "wrong"))
}

func TestSaveAccount_PersistsEdits(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeMailer{})
	user := registerUser(t, svc)

	user.Email = "new@example.com"
	user.DisplayName = "Alice A."
	require.NoError(t, svc.SaveAccount(user))

	stored, err := store.FindUserByID(user.ID)
	require.NoError(t, err)
	require.Equal(t, "new@example.com", stored.Email)
	require.Equal(t, "Alice A.", stored.DisplayName)
}

func TestSaveAccount_ValidationFailureDoesNotPersist(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeMailer{})
	user := registerUser(t, svc)

	user.Email = "not-an-email"
	err := svc.SaveAccount(user)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "email")
	// the in-memory user keeps the attempted value for re-display
	require.Equal(t, "not-an-email", user.Email)
	require.Zero(t, store.updates)

	stored, findErr := store.FindUserByID(user.ID)
	require.NoError(t, findErr)
	require.Equal(t, "alice@example.com", stored.Email)
}

func TestSaveAccount_NewPasswordIsHashed(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeMailer{})
	user := registerUser(t, svc)

	user.NewPassword = "brand-new-secret"
	user.PasswordConfirmation = "brand-new-secret"
	require.NoError(t, svc.SaveAccount(user))

	stored, err := store.FindUserByID(user.ID)
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("brand-new-secret")))
	require.Empty(t, user.NewPassword)
	require.Empty(t, user.PasswordConfirmation)
}

func TestSaveAccount_PasswordValidation(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeMailer{})

	t.Run("too short", func(t *testing.T) {
		user := registerUser(t, svc)
		user.NewPassword = "short"
		user.PasswordConfirmation = "short"
		var verr *ValidationError
		require.ErrorAs(t, svc.SaveAccount(user), &verr)
		require.Contains(t, verr.Fields, "new_password")
	})

	t.Run("confirmation mismatch", func(t *testing.T) {
		user, err := svc.Register("bob", "bob@example.com", "correct-horse")
		require.NoError(t, err)
		user.NewPassword = "brand-new-secret"
		user.PasswordConfirmation = "different-secret"
		var verr *ValidationError
		require.ErrorAs(t, svc.SaveAccount(user), &verr)
		require.Contains(t, verr.Fields, "password_confirmation")
	})
}

func TestSaveAccount_StorageErrorIsNotValidation(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeMailer{})
	user := registerUser(t, svc)

	store.failAll = true
	err := svc.SaveAccount(user)
	require.Error(t, err)

	var verr *ValidationError
	require.False(t, errors.As(err, &verr))
}

func TestDeleteAccount_TokenMismatchKeepsUser(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeMailer{})
	user := registerUser(t, svc)

	require.ErrorIs(t, svc.DeleteAccount(user, ""), ErrDeleteTokenMismatch)
	require.ErrorIs(t, svc.DeleteAccount(user, "wrong-token"), ErrDeleteTokenMismatch)

	_, err := store.FindUserByID(user.ID)
	require.NoError(t, err)
}

func TestDeleteAccount_ExactTokenDestroysUser(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeMailer{})
	user := registerUser(t, svc)

	require.NoError(t, svc.DeleteAccount(user, user.DeleteToken))

	_, err := store.FindUserByID(user.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRequestDeleteToken_RotatesAndMails(t *testing.T) {
	store := newFakeStore()
	mailer := &fakeMailer{}
	svc := newTestService(store, mailer)
	user := registerUser(t, svc)
	oldToken := user.DeleteToken

	require.NoError(t, svc.RequestDeleteToken(user))

	stored, err := store.FindUserByID(user.ID)
	require.NoError(t, err)
	require.NotEqual(t, oldToken, stored.DeleteToken)
	require.Equal(t, "alice@example.com", mailer.to)
	require.Equal(t, "http://example.com/settings/account/delete/"+stored.DeleteToken, mailer.link)
}

func TestRequestDeleteToken_MailFailureSurfaces(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeMailer{fail: true})
	user := registerUser(t, svc)

	require.Error(t, svc.RequestDeleteToken(user))
}

func TestRotateStaleDeleteTokens_OnlyTouchesStale(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeMailer{})
	stale := registerUser(t, svc)
	fresh, err := svc.Register("bob", "bob@example.com", "correct-horse")
	require.NoError(t, err)

	staleToken := stale.DeleteToken
	freshToken := fresh.DeleteToken
	store.users[stale.ID].DeleteTokenSetAt = time.Now().Add(-48 * time.Hour)

	require.NoError(t, svc.RotateStaleDeleteTokens())

	require.NotEqual(t, staleToken, store.users[stale.ID].DeleteToken)
	require.Equal(t, freshToken, store.users[fresh.ID].DeleteToken)
}

func TestNotesForExport(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeMailer{})
	user := registerUser(t, svc)
	store.notes[user.ID] = []*models.Note{
		{ID: 1, OwnerID: user.ID, Title: "Draft", Content: "body"},
	}

	notes, err := svc.NotesForExport(user)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.Equal(t, "Draft", notes[0].Title)
}
