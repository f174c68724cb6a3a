//go:build integration

package vault

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/sumup/dropin"
)

type RedisStoreTestSuite struct {
	suite.Suite
	ctx       context.Context
	container testcontainers.Container
	store     *RedisStore
}

func (s *RedisStoreTestSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := testcontainers.GenericContainer(s.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	s.Require().NoError(err)
	s.container = container

	host, err := container.Host(s.ctx)
	s.Require().NoError(err)
	port, err := container.MappedPort(s.ctx, "6379")
	s.Require().NoError(err)

	store, err := NewRedisStore(fmt.Sprintf("redis://%s:%s", host, port.Port()))
	s.Require().NoError(err)
	s.store = store
}

func (s *RedisStoreTestSuite) SetupTest() {
	s.Require().NoError(s.store.client.FlushAll(s.ctx).Err())
}

func (s *RedisStoreTestSuite) TearDownSuite() {
	if s.store != nil {
		_ = s.store.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *RedisStoreTestSuite) TestSaveAndList() {
	s.Require().NoError(s.store.Save(s.ctx, "cus_1", dropin.PaymentMethod{Type: dropin.TypeCreditCard, Nonce: "card-1", Default: true}))
	s.Require().NoError(s.store.Save(s.ctx, "cus_1", dropin.PaymentMethod{Type: dropin.TypePayPalAccount, Nonce: "pp-1"}))
	s.Require().NoError(s.store.Save(s.ctx, "cus_2", dropin.PaymentMethod{Type: dropin.TypeVenmoAccount, Nonce: "venmo-1"}))

	methods, err := s.store.List(s.ctx, "cus_1", false)
	s.Require().NoError(err)
	s.Require().Len(methods, 2)
	s.Equal("pp-1", methods[0].Nonce)
	s.Equal("card-1", methods[1].Nonce)

	methods, err = s.store.List(s.ctx, "cus_1", true)
	s.Require().NoError(err)
	s.Require().Len(methods, 2)
	s.Equal("card-1", methods[0].Nonce)
}

func (s *RedisStoreTestSuite) TestSaveRejectsInvalidMethod() {
	err := s.store.Save(s.ctx, "cus_1", dropin.PaymentMethod{Type: dropin.TypeCreditCard})
	s.Error(err)

	err = s.store.Save(s.ctx, "", dropin.PaymentMethod{Type: dropin.TypeCreditCard, Nonce: "n"})
	s.Error(err)
}

func (s *RedisStoreTestSuite) TestDelete() {
	s.Require().NoError(s.store.Save(s.ctx, "cus_1", dropin.PaymentMethod{Type: dropin.TypeCreditCard, Nonce: "card-1"}))

	s.Require().NoError(s.store.Delete(s.ctx, "cus_1", "card-1"))
	s.ErrorIs(s.store.Delete(s.ctx, "cus_1", "card-1"), ErrNotFound)

	methods, err := s.store.List(s.ctx, "cus_1", false)
	s.Require().NoError(err)
	s.Empty(methods)
}

func (s *RedisStoreTestSuite) TestModelLoadsAndDeletesThroughStore() {
	s.Require().NoError(s.store.Save(s.ctx, "cus_1", dropin.PaymentMethod{Type: dropin.TypeCreditCard, Nonce: "card-1"}))
	s.Require().NoError(s.store.Save(s.ctx, "cus_1", dropin.PaymentMethod{Type: dropin.TypeApplePayCard, Nonce: "apple-1"}))

	model, err := dropin.New(dropin.Settings{
		PaymentOptionPriority: []string{"card"},
		CustomerID:            "cus_1",
	},
		dropin.WithIntegration(dropin.OptionCard, dropin.ProbeFunc(func(context.Context, dropin.ProbeContext) (bool, error) {
			return true, nil
		})),
		dropin.WithVaultClient(s.store.ForCustomer("cus_1")),
	)
	s.Require().NoError(err)
	defer model.Teardown()
	s.Require().NoError(model.Init(s.ctx))

	methods := model.GetPaymentMethods()
	s.Require().Len(methods, 1)
	s.Equal("card-1", methods[0].Nonce)
	s.True(methods[0].Vaulted)

	s.Require().NoError(model.DeleteVaultedPaymentMethod(s.ctx, methods[0]))
	s.Empty(model.GetPaymentMethods())

	stored, err := s.store.List(s.ctx, "cus_1", false)
	s.Require().NoError(err)
	s.Require().Len(stored, 1)
	s.Equal("apple-1", stored[0].Nonce)
}

func TestRedisStoreTestSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreTestSuite))
}
