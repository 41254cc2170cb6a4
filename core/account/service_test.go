package account

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/png"
	"strings"
	"testing"
	"time"

	"magicwords/cache"
	"magicwords/core/apperr"
	"magicwords/core/auth"
	"magicwords/model"
	"magicwords/repository/repositorytest"
	"magicwords/storage"
	"magicwords/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodPassword = "correct-horse-battery"

type fixture struct {
	svc      *Service
	accounts *repositorytest.MemoryAccounts
	images   *storagetest.MemoryImages
	tokens   *auth.Issuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	hasher, err := auth.NewPasswords("argon2id")
	require.NoError(t, err)
	hasher = hasher.WithPrimary(auth.Argon2id{Time: 1, Memory: 64, Threads: 1, SaltLen: 16, KeyLen: 32})

	f := &fixture{
		accounts: repositorytest.NewMemoryAccounts(),
		images:   storagetest.NewMemoryImages(),
		tokens:   auth.NewIssuer("test-secret", "magic-words", 5*time.Minute, 24*time.Hour),
	}
	f.svc = NewService(Deps{
		Accounts:       f.accounts,
		Hasher:         hasher,
		Tokens:         f.tokens,
		Revocations:    cache.NewMemoryRevocations(),
		Images:         f.images,
		URLs:           storage.URLBuilder{Prefix: "/media/"},
		MaxUploadBytes: 1 << 20,
	})
	return f
}

func (f *fixture) register(t *testing.T, username, email, phone string) *model.Principal {
	t.Helper()
	v, err := f.svc.Register(context.Background(), RegisterInput{Username: username, Email: email, PhoneNumber: phone, Password: goodPassword})
	require.NoError(t, err)
	return &model.Principal{AccountID: v.ID, Email: v.Email}
}

func (f *fixture) superuser(t *testing.T) *model.Principal {
	t.Helper()
	v, err := f.svc.CreateSuperuser(context.Background(), RegisterInput{Username: "root", Email: "root@example.com", PhoneNumber: "999", Password: goodPassword})
	require.NoError(t, err)
	return &model.Principal{AccountID: v.ID, Email: v.Email, IsSuperuser: true}
}

func validationFields(t *testing.T, err error) map[string][]string {
	t.Helper()
	var ve *apperr.ValidationError
	require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
	return ve.Fields
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v, err := f.svc.Register(ctx, RegisterInput{Username: "bob", Email: "  BOB@Example.COM ", PhoneNumber: "5550001", Password: goodPassword})
	require.NoError(t, err)
	assert.Equal(t, model.AccountView{ID: 1, Username: "bob", Email: "bob@example.com", PhoneNumber: "5550001"}, v)

	stored, err := f.accounts.GetByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, goodPassword, stored.PasswordHash)
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "argon2id$"))
	assert.True(t, stored.IsActive)
	assert.False(t, stored.IsStaff)
	assert.False(t, stored.IsSuperuser)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.register(t, "bob", "bob@example.com", "5550001")

	_, err := f.svc.Register(context.Background(), RegisterInput{Username: "other", Email: "Bob@example.com", PhoneNumber: "5550002", Password: goodPassword})
	assert.ErrorIs(t, err, apperr.ErrDuplicateKey)
	assert.Equal(t, []string{"account with this email already exists."}, apperr.AsValidation(err).Fields["email"])
	assert.Equal(t, 1, f.accounts.Len())
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, RegisterInput{Username: "bob"})
	fields := validationFields(t, err)
	assert.Equal(t, []string{msgRequired}, fields["email"])
	assert.Equal(t, []string{msgRequired}, fields["phone_number"])
	assert.Equal(t, []string{msgRequired}, fields["password"])

	_, err = f.svc.Register(ctx, RegisterInput{Username: "bob", Email: "not-an-email", PhoneNumber: "1234567890123", Password: goodPassword})
	fields = validationFields(t, err)
	assert.Equal(t, []string{msgInvalidEmail}, fields["email"])
	assert.Equal(t, []string{"Ensure this field has no more than 12 characters."}, fields["phone_number"])

	_, err = f.svc.Register(ctx, RegisterInput{Username: "bob", Email: "bob@example.com", PhoneNumber: "1", Password: "12345678"})
	fields = validationFields(t, err)
	assert.Equal(t, []string{"This password is too common.", "This password is entirely numeric."}, fields["password"])
	assert.Zero(t, f.accounts.Len())
}

func TestCreateSuperuser(t *testing.T) {
	f := newFixture(t)
	p := f.superuser(t)

	a, err := f.accounts.GetByID(context.Background(), p.AccountID)
	require.NoError(t, err)
	assert.True(t, a.IsStaff)
	assert.True(t, a.IsSuperuser)
}

func TestLoginIssuesClaims(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.register(t, "bob", "bob@example.com", "5550001")

	pair, err := f.svc.Login(ctx, LoginInput{Email: "BOB@example.com", Password: goodPassword})
	require.NoError(t, err)

	claims, err := f.tokens.Parse(pair.Access, auth.TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, p.AccountID, claims.UserID)
	assert.Equal(t, "bob", claims.Username)
	assert.Equal(t, "bob@example.com", claims.Email)
	assert.Equal(t, "5550001", claims.PhoneNumber)
	assert.Nil(t, claims.Image)
	assert.False(t, claims.IsSuperuser)

	a, err := f.accounts.GetByID(ctx, p.AccountID)
	require.NoError(t, err)
	assert.NotNil(t, a.LastLogin)

	principal, err := f.svc.Authenticate(pair.Access)
	require.NoError(t, err)
	assert.Equal(t, &model.Principal{AccountID: p.AccountID, Email: "bob@example.com"}, principal)

	_, err = f.svc.Authenticate(pair.Refresh)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestLoginFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.register(t, "bob", "bob@example.com", "5550001")

	_, err := f.svc.Login(ctx, LoginInput{Email: "bob@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: goodPassword})
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, LoginInput{})
	fields := validationFields(t, err)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")

	a, err := f.accounts.GetByID(ctx, p.AccountID)
	require.NoError(t, err)
	a.IsActive = false
	require.NoError(t, f.accounts.Update(ctx, a))
	_, err = f.svc.Login(ctx, LoginInput{Email: "bob@example.com", Password: goodPassword})
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestRefreshAndLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.register(t, "bob", "bob@example.com", "5550001")

	pair, err := f.svc.Login(ctx, LoginInput{Email: "bob@example.com", Password: goodPassword})
	require.NoError(t, err)

	// profile changes are visible in refreshed access tokens
	newName := "robert"
	_, err = f.svc.UpdateSelf(ctx, p, SelfUpdate{Username: &newName})
	require.NoError(t, err)

	access, err := f.svc.Refresh(ctx, pair.Refresh)
	require.NoError(t, err)
	claims, err := f.tokens.Parse(access, auth.TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "robert", claims.Username)

	_, err = f.svc.Refresh(ctx, pair.Access)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	require.NoError(t, f.svc.Logout(ctx, pair.Refresh))
	_, err = f.svc.Refresh(ctx, pair.Refresh)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.ErrorIs(t, f.svc.Logout(ctx, pair.Refresh), apperr.ErrUnauthorized)

	_, err = f.svc.Refresh(ctx, " ")
	assert.Contains(t, validationFields(t, err), "refresh")
}

func TestRefreshDeletedAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.superuser(t)
	p := f.register(t, "bob", "bob@example.com", "5550001")

	pair, err := f.svc.Login(ctx, LoginInput{Email: "bob@example.com", Password: goodPassword})
	require.NoError(t, err)
	require.NoError(t, f.svc.AdminDelete(ctx, admin, p.AccountID))

	_, err = f.svc.Refresh(ctx, pair.Refresh)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestGetSelf(t *testing.T) {
	f := newFixture(t)
	p := f.register(t, "bob", "bob@example.com", "5550001")

	v, err := f.svc.GetSelf(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "bob", v.Username)

	_, err = f.svc.GetSelf(context.Background(), nil)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func ptr(s string) *string { return &s }

func TestUpdateSelfBlankFieldsAreNoChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.register(t, "bob", "bob@example.com", "5550001")
	before, err := f.accounts.GetByID(ctx, p.AccountID)
	require.NoError(t, err)

	v, err := f.svc.UpdateSelf(ctx, p, SelfUpdate{
		Username:    ptr("bobby"),
		Email:       ptr("Bobby@Example.com"),
		PhoneNumber: ptr("  "),
		Password:    ptr(""),
	})
	require.NoError(t, err)
	assert.Equal(t, model.AccountView{ID: p.AccountID, Username: "bobby", Email: "bobby@example.com", PhoneNumber: "5550001"}, v)

	after, err := f.accounts.GetByID(ctx, p.AccountID)
	require.NoError(t, err)
	assert.Equal(t, before.PasswordHash, after.PasswordHash)
}

func TestUpdateSelfWeakPasswordLeavesRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.register(t, "bob", "bob@example.com", "5550001")
	before, err := f.accounts.GetByID(ctx, p.AccountID)
	require.NoError(t, err)

	_, err = f.svc.UpdateSelf(ctx, p, SelfUpdate{Username: ptr("changed"), Password: ptr("12345678")})
	assert.Contains(t, validationFields(t, err), "password")

	after, err := f.accounts.GetByID(ctx, p.AccountID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestUpdateSelfPasswordAndValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.register(t, "bob", "bob@example.com", "5550001")
	f.register(t, "carol", "carol@example.com", "5550002")

	_, err := f.svc.UpdateSelf(ctx, p, SelfUpdate{Password: ptr("a-much-better-secret")})
	require.NoError(t, err)
	_, err = f.svc.Login(ctx, LoginInput{Email: "bob@example.com", Password: "a-much-better-secret"})
	require.NoError(t, err)

	_, err = f.svc.UpdateSelf(ctx, p, SelfUpdate{Email: ptr("")})
	assert.Equal(t, []string{msgRequired}, validationFields(t, err)["email"])

	_, err = f.svc.UpdateSelf(ctx, p, SelfUpdate{PhoneNumber: ptr("5550002")})
	assert.ErrorIs(t, err, apperr.ErrDuplicateKey)
}

func TestUpdateProfileImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.register(t, "bob", "bob@example.com", "5550001")

	url, err := f.svc.UpdateProfileImage(ctx, p, ProfileImage{Data: pngBytes(t)})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/media/images/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	a, err := f.accounts.GetByID(ctx, p.AccountID)
	require.NoError(t, err)
	require.NotNil(t, a.Image)
	assert.Equal(t, "/media/"+*a.Image, url)
	first := *a.Image

	// replacing drops the previous object
	_, err = f.svc.UpdateProfileImage(ctx, p, ProfileImage{Email: "bob@example.com", Data: pngBytes(t)})
	require.NoError(t, err)
	keys := f.images.Keys()
	require.Len(t, keys, 1)
	assert.NotEqual(t, first, keys[0])

	pair, err := f.svc.Login(ctx, LoginInput{Email: "bob@example.com", Password: goodPassword})
	require.NoError(t, err)
	claims, err := f.tokens.Parse(pair.Access, auth.TokenTypeAccess)
	require.NoError(t, err)
	require.NotNil(t, claims.Image)
	assert.Equal(t, "/media/"+keys[0], *claims.Image)
}

func TestUpdateProfileImageRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.register(t, "bob", "bob@example.com", "5550001")
	f.register(t, "carol", "carol@example.com", "5550002")

	_, err := f.svc.UpdateProfileImage(ctx, p, ProfileImage{})
	assert.Equal(t, []string{"No file was submitted."}, validationFields(t, err)["image"])

	_, err = f.svc.UpdateProfileImage(ctx, p, ProfileImage{Data: []byte("definitely not an image")})
	assert.Equal(t, []string{msgInvalidImage}, validationFields(t, err)["image"])

	_, err = f.svc.UpdateProfileImage(ctx, p, ProfileImage{Data: bytes.Repeat([]byte{0}, 2<<20)})
	assert.Contains(t, validationFields(t, err), "image")

	_, err = f.svc.UpdateProfileImage(ctx, p, ProfileImage{Email: "carol@example.com", Data: pngBytes(t)})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = f.svc.UpdateProfileImage(ctx, nil, ProfileImage{Data: pngBytes(t)})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Empty(t, f.images.Keys())
}

// pngHeader is a grayscale PNG signature plus IHDR declaring width x height,
// with no pixel data.
func pngHeader(width, height uint32) []byte {
	var ihdr [13]byte
	binary.BigEndian.PutUint32(ihdr[0:4], width)
	binary.BigEndian.PutUint32(ihdr[4:8], height)
	ihdr[8] = 8 // bit depth; color type 0 is grayscale

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	buf.WriteString("IHDR")
	buf.Write(ihdr[:])
	crc := crc32.NewIEEE()
	crc.Write([]byte("IHDR"))
	crc.Write(ihdr[:])
	_ = binary.Write(&buf, binary.BigEndian, crc.Sum32())
	return buf.Bytes()
}

func TestUpdateProfileImageRejectsHugeDimensions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.register(t, "bob", "bob@example.com", "5550001")

	data := pngHeader(100000, 100000)
	require.Less(t, len(data), 100)
	_, err := f.svc.UpdateProfileImage(ctx, p, ProfileImage{Data: data})
	msgs := validationFields(t, err)["image"]
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "exceeds limit of 89478485 pixels")

	f.svc.maxPixels = 3
	_, err = f.svc.UpdateProfileImage(ctx, p, ProfileImage{Data: pngBytes(t)})
	assert.Equal(t, []string{"Image size (4 pixels) exceeds limit of 3 pixels."}, validationFields(t, err)["image"])
	assert.Empty(t, f.images.Keys())
}

func TestUpdateProfileImageAfterEmailChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.register(t, "bob", "bob@example.com", "5550001")

	_, err := f.svc.UpdateSelf(ctx, p, SelfUpdate{Email: ptr("bob2@example.com")})
	require.NoError(t, err)

	// p still carries the old email from its token
	_, err = f.svc.UpdateProfileImage(ctx, p, ProfileImage{Email: "bob2@example.com", Data: pngBytes(t)})
	require.NoError(t, err)

	a, err := f.accounts.GetByID(ctx, p.AccountID)
	require.NoError(t, err)
	assert.NotNil(t, a.Image)
}

func TestUpdateProfileImageAsSuperuser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.superuser(t)
	f.register(t, "carol", "carol@example.com", "5550002")

	_, err := f.svc.UpdateProfileImage(ctx, admin, ProfileImage{Email: "CAROL@example.com", Data: pngBytes(t)})
	require.NoError(t, err)

	_, err = f.svc.UpdateProfileImage(ctx, admin, ProfileImage{Email: "ghost@example.com", Data: pngBytes(t)})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateProfileImageStoreFailure(t *testing.T) {
	f := newFixture(t)
	p := f.register(t, "bob", "bob@example.com", "5550001")
	f.images.PutErr = errors.New("bucket unavailable")

	_, err := f.svc.UpdateProfileImage(context.Background(), p, ProfileImage{Data: pngBytes(t)})
	require.Error(t, err)

	a, err := f.accounts.GetByID(context.Background(), p.AccountID)
	require.NoError(t, err)
	assert.Nil(t, a.Image)
}

func TestAdminListRequiresSuperuser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.superuser(t)
	p := f.register(t, "bob", "bob@example.com", "5550001")

	views, err := f.svc.AdminList(ctx, p)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Nil(t, views)

	_, err = f.svc.AdminList(ctx, nil)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	// a forged superuser claim is not enough
	_, err = f.svc.AdminList(ctx, &model.Principal{AccountID: p.AccountID, IsSuperuser: true})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	views, err = f.svc.AdminList(ctx, admin)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "bob", views[0].Username)
}

func TestAdminSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "carol", "carol@example.com", "100")
	f.register(t, "bobby", "bobby@example.com", "200")
	f.register(t, "alice", "alice@bob.io", "300")
	_, err := f.svc.CreateSuperuser(ctx, RegisterInput{Username: "bob admin", Email: "bobadmin@example.com", PhoneNumber: "999", Password: goodPassword})
	require.NoError(t, err)
	admin, err := f.accounts.GetByEmail(ctx, "bobadmin@example.com")
	require.NoError(t, err)
	p := &model.Principal{AccountID: admin.ID, Email: admin.Email, IsSuperuser: true}

	names := func(views []model.AccountView) []string {
		out := make([]string, 0, len(views))
		for _, v := range views {
			out = append(out, v.Username)
		}
		return out
	}

	all, err := f.svc.AdminSearch(ctx, p, "   ")
	require.NoError(t, err)
	assert.Equal(t, []string{"carol", "bobby", "alice"}, names(all))

	found, err := f.svc.AdminSearch(ctx, p, " BOB ")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bobby"}, names(found))

	byPhone, err := f.svc.AdminSearch(ctx, p, "20")
	require.NoError(t, err)
	assert.Equal(t, []string{"bobby"}, names(byPhone))

	none, err := f.svc.AdminSearch(ctx, p, "zzz")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestAdminUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.superuser(t)
	p := f.register(t, "bob", "bob@example.com", "5550001")

	_, err := f.svc.AdminUpdate(ctx, admin, 404, AdminUpdateInput{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.svc.AdminUpdate(ctx, admin, p.AccountID, AdminUpdateInput{Username: "bob"})
	fields := validationFields(t, err)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "phone_number")
	assert.Contains(t, fields, "password")

	v, err := f.svc.AdminUpdate(ctx, admin, p.AccountID, AdminUpdateInput{
		Username: "robert", Email: "Robert@Example.com", PhoneNumber: "5550009", Password: "another-fine-secret",
	})
	require.NoError(t, err)
	assert.Equal(t, model.AccountView{ID: p.AccountID, Username: "robert", Email: "robert@example.com", PhoneNumber: "5550009"}, v)

	_, err = f.svc.Login(ctx, LoginInput{Email: "robert@example.com", Password: "another-fine-secret"})
	assert.NoError(t, err)

	_, err = f.svc.AdminUpdate(ctx, p, p.AccountID, AdminUpdateInput{})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestAdminDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.superuser(t)
	p := f.register(t, "bob", "bob@example.com", "5550001")
	_, err := f.svc.UpdateProfileImage(ctx, p, ProfileImage{Data: pngBytes(t)})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.AdminDelete(ctx, admin, 404), apperr.ErrNotFound)
	assert.ErrorIs(t, f.svc.AdminDelete(ctx, p, p.AccountID), apperr.ErrUnauthorized)

	require.NoError(t, f.svc.AdminDelete(ctx, admin, p.AccountID))
	_, err = f.svc.GetSelf(ctx, p)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Empty(t, f.images.Keys())
}
