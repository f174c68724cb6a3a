package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/redis/go-redis/v9"

	"github.com/sumup/dropin"
)

const methodsKeyPrefix = "vault:"

// ErrNotFound is returned when deleting a nonce the vault does not hold.
var ErrNotFound = errors.New("vault: payment method not found")

// RedisStore keeps each customer's payment methods in a redis list, most
// recently saved first.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to the redis instance at url.
func NewRedisStore(url string) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("vault: parse redis url: %w", err)
	}
	return &RedisStore{client: redis.NewClient(opt)}, nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func methodsKey(customerID string) string {
	return methodsKeyPrefix + customerID + ":methods"
}

// Save stores pm for customerID.
func (s *RedisStore) Save(ctx context.Context, customerID string, pm dropin.PaymentMethod) error {
	if customerID == "" {
		return errors.New("vault: customer id is required")
	}
	if err := pm.Validate(); err != nil {
		return err
	}
	pm.Vaulted = false
	data, err := json.Marshal(pm)
	if err != nil {
		return fmt.Errorf("vault: marshal payment method: %w", err)
	}
	return s.client.LPush(ctx, methodsKey(customerID), data).Err()
}

// List returns the stored methods of customerID, optionally with the default
// method first.
func (s *RedisStore) List(ctx context.Context, customerID string, defaultFirst bool) ([]dropin.PaymentMethod, error) {
	raw, err := s.client.LRange(ctx, methodsKey(customerID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("vault: list payment methods: %w", err)
	}
	methods := make([]dropin.PaymentMethod, 0, len(raw))
	for _, item := range raw {
		var pm dropin.PaymentMethod
		if err := json.Unmarshal([]byte(item), &pm); err != nil {
			return nil, fmt.Errorf("vault: decode payment method: %w", err)
		}
		methods = append(methods, pm)
	}
	if defaultFirst {
		slices.SortStableFunc(methods, func(a, b dropin.PaymentMethod) int {
			switch {
			case a.Default == b.Default:
				return 0
			case a.Default:
				return -1
			default:
				return 1
			}
		})
	}
	return methods, nil
}

// Delete removes the method with nonce from customerID's vault.
func (s *RedisStore) Delete(ctx context.Context, customerID, nonce string) error {
	key := methodsKey(customerID)
	raw, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("vault: list payment methods: %w", err)
	}
	for _, item := range raw {
		var pm dropin.PaymentMethod
		if err := json.Unmarshal([]byte(item), &pm); err != nil {
			continue
		}
		if pm.Nonce != nonce {
			continue
		}
		removed, err := s.client.LRem(ctx, key, 1, item).Result()
		if err != nil {
			return fmt.Errorf("vault: delete payment method: %w", err)
		}
		if removed == 0 {
			return ErrNotFound
		}
		return nil
	}
	return ErrNotFound
}

// ForCustomer returns a [dropin.VaultClient] scoped to customerID.
func (s *RedisStore) ForCustomer(customerID string) dropin.VaultClient {
	return &customerVault{store: s, customerID: customerID}
}

type customerVault struct {
	store      *RedisStore
	customerID string
}

func (v *customerVault) FetchPaymentMethods(ctx context.Context, opts dropin.FetchOptions) ([]dropin.PaymentMethod, error) {
	return v.store.List(ctx, v.customerID, opts.DefaultFirst)
}

func (v *customerVault) DeletePaymentMethod(ctx context.Context, nonce string) error {
	return v.store.Delete(ctx, v.customerID, nonce)
}
