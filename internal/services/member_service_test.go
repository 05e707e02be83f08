package services

import (
	"context"
	"testing"
	"time"

	"cannaclub/internal/ledger"
	"cannaclub/internal/models"
	"cannaclub/internal/repositories"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type MemberServiceTestSuite struct {
	suite.Suite
	mock     pgxmock.PgxPoolIface
	service  MemberServiceInterface
	tenantID uuid.UUID
	ctx      context.Context
}

func (suite *MemberServiceTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.service = NewMemberService(mock, repositories.NewUserRepo(), repositories.NewWalletRepo(), zap.NewNop())
	suite.tenantID = uuid.New()
	suite.ctx = context.Background()
}

func (suite *MemberServiceTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func (suite *MemberServiceTestSuite) userRow(userID uuid.UUID, email, passwordHash, role, status string) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows([]string{"id", "tenant_id", "email", "password_hash", "first_name", "last_name", "role", "status", "created_at", "updated_at"}).
		AddRow(userID, suite.tenantID, email, passwordHash, "Mila", "Janssen", role, status, now, now)
}

func (suite *MemberServiceTestSuite) TestCreateMember_MemberGetsWallet() {
	suite.mock.ExpectQuery(`FROM users`).
		WithArgs(suite.tenantID, "mila@club.test").
		WillReturnError(pgx.ErrNoRows)
	suite.mock.ExpectBegin()
	suite.mock.ExpectExec(`INSERT INTO users`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectExec(`INSERT INTO wallets`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectCommit()

	user, err := suite.service.CreateMember(suite.ctx, suite.tenantID, &CreateMemberRequest{
		Email:     " Mila@Club.test ",
		Password:  "letmein-please",
		FirstName: "Mila",
		LastName:  "Janssen",
		Role:      models.RoleMember,
	})

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "mila@club.test", user.Email)
	assert.Equal(suite.T(), "active", user.Status)
	assert.NotEqual(suite.T(), "letmein-please", user.PasswordHash)
}

func (suite *MemberServiceTestSuite) TestCreateMember_StaffGetsNoWallet() {
	suite.mock.ExpectQuery(`FROM users`).
		WithArgs(suite.tenantID, "bud@club.test").
		WillReturnError(pgx.ErrNoRows)
	suite.mock.ExpectBegin()
	suite.mock.ExpectExec(`INSERT INTO users`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectCommit()

	user, err := suite.service.CreateMember(suite.ctx, suite.tenantID, &CreateMemberRequest{
		Email:    "bud@club.test",
		Password: "letmein-please",
		Role:     models.RoleStaff,
	})

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.RoleStaff, user.Role)
}

func (suite *MemberServiceTestSuite) TestCreateMember_DuplicateEmail() {
	existing := uuid.New()
	suite.mock.ExpectQuery(`FROM users`).
		WithArgs(suite.tenantID, "mila@club.test").
		WillReturnRows(suite.userRow(existing, "mila@club.test", "hash", models.RoleMember, "active"))

	user, err := suite.service.CreateMember(suite.ctx, suite.tenantID, &CreateMemberRequest{
		Email:    "mila@club.test",
		Password: "letmein-please",
		Role:     models.RoleMember,
	})

	assert.Nil(suite.T(), user)
	var validationErr *ledger.ValidationError
	assert.ErrorAs(suite.T(), err, &validationErr)
	assert.Equal(suite.T(), "email", validationErr.Field)
}

func (suite *MemberServiceTestSuite) TestCreateMember_RejectsBadInput() {
	cases := []struct {
		name string
		req  *CreateMemberRequest
	}{
		{"bad email", &CreateMemberRequest{Email: "not-an-email", Password: "letmein-please", Role: models.RoleMember}},
		{"short password", &CreateMemberRequest{Email: "mila@club.test", Password: "short", Role: models.RoleMember}},
		{"unknown role", &CreateMemberRequest{Email: "mila@club.test", Password: "letmein-please", Role: "owner"}},
	}

	for _, tc := range cases {
		user, err := suite.service.CreateMember(suite.ctx, suite.tenantID, tc.req)
		assert.Nil(suite.T(), user, tc.name)
		var validationErr *ledger.ValidationError
		assert.ErrorAs(suite.T(), err, &validationErr, tc.name)
	}
}

func (suite *MemberServiceTestSuite) TestAuthenticate_Success() {
	userID := uuid.New()
	hash, err := bcrypt.GenerateFromPassword([]byte("letmein-please"), bcrypt.MinCost)
	assert.NoError(suite.T(), err)

	suite.mock.ExpectQuery(`FROM users`).
		WithArgs(suite.tenantID, "mila@club.test").
		WillReturnRows(suite.userRow(userID, "mila@club.test", string(hash), models.RoleMember, "active"))

	user, err := suite.service.Authenticate(suite.ctx, suite.tenantID, "Mila@Club.test", "letmein-please")

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), userID, user.ID)
}

func (suite *MemberServiceTestSuite) TestAuthenticate_WrongPassword() {
	hash, err := bcrypt.GenerateFromPassword([]byte("letmein-please"), bcrypt.MinCost)
	assert.NoError(suite.T(), err)

	suite.mock.ExpectQuery(`FROM users`).
		WithArgs(suite.tenantID, "mila@club.test").
		WillReturnRows(suite.userRow(uuid.New(), "mila@club.test", string(hash), models.RoleMember, "active"))

	user, err := suite.service.Authenticate(suite.ctx, suite.tenantID, "mila@club.test", "wrong-password")

	assert.Nil(suite.T(), user)
	assert.ErrorIs(suite.T(), err, ErrInvalidCredentials)
}

func (suite *MemberServiceTestSuite) TestAuthenticate_SuspendedAccount() {
	hash, err := bcrypt.GenerateFromPassword([]byte("letmein-please"), bcrypt.MinCost)
	assert.NoError(suite.T(), err)

	suite.mock.ExpectQuery(`FROM users`).
		WithArgs(suite.tenantID, "mila@club.test").
		WillReturnRows(suite.userRow(uuid.New(), "mila@club.test", string(hash), models.RoleMember, "suspended"))

	user, err := suite.service.Authenticate(suite.ctx, suite.tenantID, "mila@club.test", "letmein-please")

	assert.Nil(suite.T(), user)
	assert.ErrorIs(suite.T(), err, ErrInvalidCredentials)
}

func (suite *MemberServiceTestSuite) TestAuthenticate_UnknownEmail() {
	suite.mock.ExpectQuery(`FROM users`).
		WithArgs(suite.tenantID, "ghost@club.test").
		WillReturnError(pgx.ErrNoRows)

	user, err := suite.service.Authenticate(suite.ctx, suite.tenantID, "ghost@club.test", "letmein-please")

	assert.Nil(suite.T(), user)
	assert.ErrorIs(suite.T(), err, ErrInvalidCredentials)
}

func TestMemberServiceTestSuite(t *testing.T) {
	suite.Run(t, new(MemberServiceTestSuite))
}
