package usecase

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pkcs12 "software.sslmate.com/src/go-pkcs12"

	certDomain "github.com/allisson/vaultemu/internal/certificates/domain"
	cryptoDomain "github.com/allisson/vaultemu/internal/crypto/domain"
	cryptoService "github.com/allisson/vaultemu/internal/crypto/service"
	entityDomain "github.com/allisson/vaultemu/internal/entity/domain"
	apperrors "github.com/allisson/vaultemu/internal/errors"
	keysUsecase "github.com/allisson/vaultemu/internal/keys/usecase"
	"github.com/allisson/vaultemu/internal/lifetime"
	secretsUsecase "github.com/allisson/vaultemu/internal/secrets/usecase"
)

const testVault = "https://vault.localhost"

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type testStores struct {
	keys    *keysUsecase.KeyStore
	secrets *secretsUsecase.SecretStore
	certs   *CertificateStore
}

func newTestStores(t *testing.T, level entityDomain.RecoveryLevel, days *int) *testStores {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)
	provider := cryptoService.NewCryptoProvider(cryptoService.NewAEADManager())

	keeper, err := cryptoService.NewKMSService().OpenKeeper(ctx, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = keeper.Close() })

	keys, err := keysUsecase.NewKeyStore(testVault, level, days, provider, nil, logger)
	require.NoError(t, err)
	secrets, err := secretsUsecase.NewSecretStore(testVault, level, days, keeper, logger)
	require.NoError(t, err)
	certs, err := NewCertificateStore(testVault, level, days, keys, secrets, provider, nil, logger)
	require.NoError(t, err)
	certs.SetClock(func() time.Time { return testNow })
	return &testStores{keys: keys, secrets: secrets, certs: certs}
}

func (s *testStores) timeShift(t *testing.T, seconds int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.keys.TimeShift(ctx, seconds))
	require.NoError(t, s.secrets.TimeShift(ctx, seconds))
	require.NoError(t, s.certs.TimeShift(ctx, seconds))
}

func testPolicy(reuseKey bool) certDomain.IssuancePolicy {
	return certDomain.IssuancePolicy{
		Subject:           "CN=api.localhost",
		DNSNames:          []string{"api.localhost"},
		ValidityMonths:    12,
		ContentType:       cryptoDomain.ContentTypePKCS12,
		KeySpec:           cryptoDomain.KeySpec{Type: cryptoDomain.KeyTypeEC},
		ReuseKeyOnRenewal: reuseKey,
	}
}

func days(n int) int {
	return n * 24 * 60 * 60
}

// TestCertificateStore_CreateCertificateVersion tests certificate creation with its backing entities.
func TestCertificateStore_CreateCertificateVersion(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		stores := newTestStores(t, entityDomain.Recoverable, entityDomain.IntPtr(90))

		id, err := stores.certs.CreateCertificateVersion(ctx, "api", testPolicy(false))
		require.NoError(t, err)

		cert, err := stores.certs.Get(id)
		require.NoError(t, err)
		assert.Equal(t, id.Version, cert.Kid().Version)
		assert.Equal(t, id.Version, cert.Sid().Version)
		assert.Equal(t, testNow, cert.Created())
		assert.Equal(t, testNow.AddDate(1, 0, 0), *cert.Expiry())
		assert.Equal(t, []string{"api.localhost"}, cert.X509().DNSNames)
		assert.Equal(t, "api.localhost", cert.X509().Subject.CommonName)

		key, err := stores.keys.Get(cert.Kid())
		require.NoError(t, err)
		assert.True(t, key.Managed())
		assert.Equal(t, cryptoDomain.AllKeyOperations, key.Operations())

		bundle, err := stores.secrets.Value(ctx, cert.Sid())
		require.NoError(t, err)
		_, decoded, _, err := pkcs12.DecodeChain(bundle, "")
		require.NoError(t, err)
		assert.Equal(t, cert.DER(), decoded.Raw)

		assert.Empty(t, stores.keys.ListLatestNonManaged())
		assert.Empty(t, stores.secrets.ListLatestNonManaged())
	})

	t.Run("Success_DefaultLifetimePolicy", func(t *testing.T) {
		stores := newTestStores(t, entityDomain.Recoverable, entityDomain.IntPtr(90))
		id, err := stores.certs.CreateCertificateVersion(ctx, "api", testPolicy(false))
		require.NoError(t, err)

		policy, err := stores.certs.LifetimeActionPolicy(id.Unversioned())
		require.NoError(t, err)

		trigger, ok := policy.Trigger(lifetime.ActionRenew)
		require.True(t, ok)
		assert.Equal(t, lifetime.Trigger{Kind: lifetime.LifetimePercentage, Value: 80}, trigger)
	})

	t.Run("Success_PEM", func(t *testing.T) {
		stores := newTestStores(t, entityDomain.Recoverable, entityDomain.IntPtr(90))
		policy := testPolicy(false)
		policy.ContentType = cryptoDomain.ContentTypePEM

		id, err := stores.certs.CreateCertificateVersion(ctx, "api", policy)
		require.NoError(t, err)

		secret, err := stores.secrets.Get(id)
		require.NoError(t, err)
		assert.Equal(t, string(cryptoDomain.ContentTypePEM), secret.ContentType())
		bundle, err := stores.secrets.Value(ctx, id)
		require.NoError(t, err)
		assert.Contains(t, string(bundle), "-----BEGIN CERTIFICATE-----")
	})

	t.Run("Error_InvalidPolicy", func(t *testing.T) {
		stores := newTestStores(t, entityDomain.Recoverable, entityDomain.IntPtr(90))
		policy := testPolicy(false)
		policy.Subject = ""

		_, err := stores.certs.CreateCertificateVersion(ctx, "api", policy)

		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidCertificateRequest)
		assert.False(t, stores.keys.IsActive(stores.keys.EntityID("api")))
	})

	t.Run("Error_KeyNameTaken", func(t *testing.T) {
		stores := newTestStores(t, entityDomain.Recoverable, entityDomain.IntPtr(90))
		_, err := stores.keys.CreateKeyVersion("api", keysUsecase.CreateKeyInput{
			Spec: cryptoDomain.KeySpec{Type: cryptoDomain.KeyTypeEC},
		})
		require.NoError(t, err)

		_, err = stores.certs.CreateCertificateVersion(ctx, "api", testPolicy(false))

		assert.ErrorIs(t, err, certDomain.ErrBackingEntityExists)
	})
}

// TestCertificateStore_Lifecycle tests that delete, recover and purge cascade to the backing entities.
func TestCertificateStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	stores := newTestStores(t, entityDomain.RecoverableAndPurgeable, entityDomain.IntPtr(90))
	id, err := stores.certs.CreateCertificateVersion(ctx, "api", testPolicy(false))
	require.NoError(t, err)
	name := id.Unversioned()

	require.NoError(t, stores.certs.Delete(name))
	assert.True(t, stores.certs.IsDeleted(name))
	assert.True(t, stores.keys.IsDeleted(name))
	assert.True(t, stores.secrets.IsDeleted(name))

	require.NoError(t, stores.certs.Recover(name))
	assert.True(t, stores.certs.IsActive(name))
	assert.True(t, stores.keys.IsActive(name))
	assert.True(t, stores.secrets.IsActive(name))

	require.NoError(t, stores.certs.Delete(name))
	require.NoError(t, stores.certs.Purge(name))
	assert.False(t, stores.certs.IsDeleted(name))
	assert.False(t, stores.keys.IsDeleted(name))
	assert.False(t, stores.secrets.IsDeleted(name))

	_, err = stores.certs.LifetimeActionPolicy(name)
	assert.ErrorIs(t, err, certDomain.ErrLifetimePolicyNotFound)
}

// TestCertificateStore_ManagedEntities tests that backing entities only change through their certificate.
func TestCertificateStore_ManagedEntities(t *testing.T) {
	ctx := context.Background()

	t.Run("Error_DeleteBackingEntities", func(t *testing.T) {
		stores := newTestStores(t, entityDomain.RecoverableAndPurgeable, entityDomain.IntPtr(90))
		id, err := stores.certs.CreateCertificateVersion(ctx, "api", testPolicy(false))
		require.NoError(t, err)
		name := id.Unversioned()

		err = stores.keys.Delete(name)
		assert.ErrorIs(t, err, entityDomain.ErrManagedEntity)
		assert.ErrorIs(t, err, apperrors.ErrIllegalState)
		assert.ErrorIs(t, stores.secrets.Delete(name), entityDomain.ErrManagedEntity)
		assert.True(t, stores.keys.IsActive(name))
		assert.True(t, stores.secrets.IsActive(name))

		require.NoError(t, stores.certs.Delete(name))
		assert.True(t, stores.certs.IsDeleted(name))
		assert.True(t, stores.keys.IsDeleted(name))
		assert.True(t, stores.secrets.IsDeleted(name))
	})

	t.Run("Error_RecoverOrPurgeBackingEntities", func(t *testing.T) {
		stores := newTestStores(t, entityDomain.RecoverableAndPurgeable, entityDomain.IntPtr(90))
		id, err := stores.certs.CreateCertificateVersion(ctx, "api", testPolicy(false))
		require.NoError(t, err)
		name := id.Unversioned()
		require.NoError(t, stores.certs.Delete(name))

		assert.ErrorIs(t, stores.keys.Recover(name), entityDomain.ErrManagedEntity)
		assert.ErrorIs(t, stores.secrets.Recover(name), entityDomain.ErrManagedEntity)
		assert.ErrorIs(t, stores.keys.Purge(name), entityDomain.ErrManagedEntity)
		assert.ErrorIs(t, stores.secrets.Purge(name), entityDomain.ErrManagedEntity)
		assert.True(t, stores.keys.IsDeleted(name))
		assert.True(t, stores.secrets.IsDeleted(name))
	})

	t.Run("Error_MissingBackingEntityLeavesCertificateActive", func(t *testing.T) {
		stores := newTestStores(t, entityDomain.RecoverableAndPurgeable, entityDomain.IntPtr(90))
		id, err := stores.certs.CreateCertificateVersion(ctx, "api", testPolicy(false))
		require.NoError(t, err)
		name := id.Unversioned()
		require.NoError(t, stores.secrets.DeleteManaged(name))

		err = stores.certs.Delete(name)

		assert.ErrorIs(t, err, certDomain.ErrBackingEntityMissing)
		assert.True(t, stores.certs.IsActive(name))
		assert.False(t, stores.certs.IsDeleted(name))
		assert.True(t, stores.keys.IsActive(name))
	})

	t.Run("Error_UnknownCertificate", func(t *testing.T) {
		stores := newTestStores(t, entityDomain.RecoverableAndPurgeable, entityDomain.IntPtr(90))
		name := stores.certs.EntityID("missing")

		assert.ErrorIs(t, stores.certs.Delete(name), apperrors.ErrNotFound)
		assert.ErrorIs(t, stores.certs.Recover(name), apperrors.ErrNotFound)
		assert.ErrorIs(t, stores.certs.Purge(name), apperrors.ErrNotFound)
	})

	t.Run("Error_PurgeNotPurgeableKeepsEverything", func(t *testing.T) {
		stores := newTestStores(t, entityDomain.Recoverable, entityDomain.IntPtr(90))
		id, err := stores.certs.CreateCertificateVersion(ctx, "api", testPolicy(false))
		require.NoError(t, err)
		name := id.Unversioned()
		require.NoError(t, stores.certs.Delete(name))

		assert.ErrorIs(t, stores.certs.Purge(name), entityDomain.ErrEntityNotPurgeable)
		assert.True(t, stores.certs.IsDeleted(name))
		assert.True(t, stores.keys.IsDeleted(name))
		assert.True(t, stores.secrets.IsDeleted(name))
	})
}

// TestCertificateStore_SetLifetimeActionPolicy tests policy validation and merging.
func TestCertificateStore_SetLifetimeActionPolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_Merge", func(t *testing.T) {
		stores := newTestStores(t, entityDomain.Recoverable, entityDomain.IntPtr(90))
		id, err := stores.certs.CreateCertificateVersion(ctx, "api", testPolicy(false))
		require.NoError(t, err)
		before, err := stores.certs.LifetimeActionPolicy(id.Unversioned())
		require.NoError(t, err)

		err = stores.certs.SetLifetimeActionPolicy(certDomain.NewLifetimePolicy(id.Unversioned(),
			map[lifetime.Action]lifetime.Trigger{lifetime.ActionNotify: {Kind: lifetime.DaysBeforeExpiry, Value: 30}}, testNow))
		require.NoError(t, err)

		after, err := stores.certs.LifetimeActionPolicy(id.Unversioned())
		require.NoError(t, err)
		assert.Same(t, before, after)
		assert.False(t, after.AutoRenew())
	})

	t.Run("Error_BeyondValidity", func(t *testing.T) {
		stores := newTestStores(t, entityDomain.Recoverable, entityDomain.IntPtr(90))
		policy := testPolicy(false)
		policy.ValidityMonths = 1
		id, err := stores.certs.CreateCertificateVersion(ctx, "api", policy)
		require.NoError(t, err)

		err = stores.certs.SetLifetimeActionPolicy(certDomain.NewLifetimePolicy(id.Unversioned(),
			map[lifetime.Action]lifetime.Trigger{lifetime.ActionRenew: {Kind: lifetime.DaysBeforeExpiry, Value: 28}}, testNow))

		assert.ErrorIs(t, err, lifetime.ErrInvalidTrigger)
	})

	t.Run("Error_UnknownCertificate", func(t *testing.T) {
		stores := newTestStores(t, entityDomain.Recoverable, entityDomain.IntPtr(90))

		err := stores.certs.SetLifetimeActionPolicy(certDomain.NewDefaultLifetimePolicy(stores.certs.EntityID("missing"), testNow))

		assert.ErrorIs(t, err, entityDomain.ErrEntityNotFound)
	})
}

func setRenewBeforeExpiry(t *testing.T, stores *testStores, id entityDomain.EntityID) {
	t.Helper()
	err := stores.certs.SetLifetimeActionPolicy(certDomain.NewLifetimePolicy(id,
		map[lifetime.Action]lifetime.Trigger{lifetime.ActionRenew: {Kind: lifetime.DaysBeforeExpiry, Value: 30}}, testNow))
	require.NoError(t, err)
}

func expectedRenewals() []time.Time {
	next := func(t time.Time) time.Time { return t.AddDate(1, 0, 0).AddDate(0, 0, -30) }
	first := next(testNow.AddDate(0, 0, -1020))
	return []time.Time{first, next(first), next(next(first))}
}

// TestCertificateStore_TimeShift tests the renewal catch-up after a time shift.
func TestCertificateStore_TimeShift(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_RenewWithNewKeys", func(t *testing.T) {
		stores := newTestStores(t, entityDomain.Recoverable, entityDomain.IntPtr(90))
		id, err := stores.certs.CreateCertificateVersion(ctx, "api", testPolicy(false))
		require.NoError(t, err)
		setRenewBeforeExpiry(t, stores, id.Unversioned())

		stores.timeShift(t, days(1020))

		versions, err := stores.certs.Versions(id.Unversioned())
		require.NoError(t, err)
		require.Len(t, versions, 4)
		keyVersions, err := stores.keys.Versions(id.Unversioned())
		require.NoError(t, err)
		assert.Equal(t, versions, keyVersions)
		secretVersions, err := stores.secrets.Versions(id.Unversioned())
		require.NoError(t, err)
		assert.Equal(t, versions, secretVersions)

		for i, renewalTime := range expectedRenewals() {
			certID := id.Unversioned().WithVersion(versions[i+1])
			cert, err := stores.certs.Get(certID)
			require.NoError(t, err)
			assert.Equal(t, renewalTime, cert.Created(), "renewal %d", i)
			assert.Equal(t, renewalTime, *cert.NotBefore(), "renewal %d", i)
			assert.Equal(t, renewalTime.AddDate(1, 0, 0), *cert.Expiry(), "renewal %d", i)

			key, err := stores.keys.Get(cert.Kid())
			require.NoError(t, err)
			assert.Equal(t, renewalTime, key.Created(), "renewal %d", i)
			assert.Equal(t, renewalTime.AddDate(1, 0, 0), *key.Expiry(), "renewal %d", i)
			assert.True(t, key.Managed())

			secret, err := stores.secrets.Get(cert.Sid())
			require.NoError(t, err)
			assert.Equal(t, renewalTime, secret.Created(), "renewal %d", i)
		}
	})

	t.Run("Success_RenewReusingKey", func(t *testing.T) {
		stores := newTestStores(t, entityDomain.Recoverable, entityDomain.IntPtr(90))
		id, err := stores.certs.CreateCertificateVersion(ctx, "api", testPolicy(true))
		require.NoError(t, err)
		setRenewBeforeExpiry(t, stores, id.Unversioned())

		stores.timeShift(t, days(1020))

		versions, err := stores.certs.Versions(id.Unversioned())
		require.NoError(t, err)
		require.Len(t, versions, 4)
		keyVersions, err := stores.keys.Versions(id.Unversioned())
		require.NoError(t, err)
		require.Equal(t, []string{id.Version}, keyVersions)

		renewals := expectedRenewals()
		for i, renewalTime := range renewals {
			cert, err := stores.certs.Get(id.Unversioned().WithVersion(versions[i+1]))
			require.NoError(t, err)
			assert.Equal(t, renewalTime, cert.Created(), "renewal %d", i)
			assert.Equal(t, id, cert.Kid())
			assert.NotEqual(t, id.Version, versions[i+1])
			assert.Equal(t, versions[i+1], cert.Sid().Version)
		}

		key, err := stores.keys.Get(id)
		require.NoError(t, err)
		assert.Equal(t, testNow.AddDate(0, 0, -1020), *key.NotBefore())
		assert.Equal(t, renewals[2].AddDate(1, 0, 0), *key.Expiry())
	})

	t.Run("Success_DefaultLifetimePercentage", func(t *testing.T) {
		stores := newTestStores(t, entityDomain.Recoverable, entityDomain.IntPtr(90))
		id, err := stores.certs.CreateCertificateVersion(ctx, "api", testPolicy(false))
		require.NoError(t, err)

		stores.timeShift(t, days(700))

		next := func(start time.Time) time.Time {
			window := lifetime.DaysBetween(start, lifetime.AddMonths(start, 12))
			return start.AddDate(0, 0, int(window*80/100))
		}
		first := next(testNow.AddDate(0, 0, -700))
		renewals := []time.Time{first, next(first)}
		require.True(t, next(renewals[1]).After(testNow))

		versions, err := stores.certs.Versions(id.Unversioned())
		require.NoError(t, err)
		require.Len(t, versions, 3)
		for i, renewalTime := range renewals {
			cert, err := stores.certs.Get(id.Unversioned().WithVersion(versions[i+1]))
			require.NoError(t, err)
			assert.Equal(t, renewalTime, cert.Created(), "renewal %d", i)
			assert.Equal(t, lifetime.AddMonths(renewalTime, 12), *cert.Expiry(), "renewal %d", i)
		}
	})

	t.Run("Success_RenewalUsesUpdatedIssuancePolicy", func(t *testing.T) {
		stores := newTestStores(t, entityDomain.Recoverable, entityDomain.IntPtr(90))
		id, err := stores.certs.CreateCertificateVersion(ctx, "api", testPolicy(false))
		require.NoError(t, err)
		setRenewBeforeExpiry(t, stores, id.Unversioned())
		err = stores.certs.UpdateIssuancePolicy(id.Unversioned(), func(p *certDomain.IssuancePolicy) {
			p.Subject = "CN=renewed.localhost"
			p.DNSNames = []string{"renewed.localhost"}
			p.ValidityMonths = 6
		})
		require.NoError(t, err)

		stores.timeShift(t, days(200))

		start := testNow.AddDate(0, 0, -200)
		window := lifetime.DaysBetween(start, lifetime.AddMonths(start, 6))
		renewalTime := start.AddDate(0, 0, int(window)-30)

		versions, err := stores.certs.Versions(id.Unversioned())
		require.NoError(t, err)
		require.Len(t, versions, 2)
		renewed, err := stores.certs.Get(id.Unversioned().WithVersion(versions[1]))
		require.NoError(t, err)
		assert.Equal(t, renewalTime, renewed.Created())
		assert.Equal(t, lifetime.AddMonths(renewalTime, 6), *renewed.Expiry())
		assert.Equal(t, 6, renewed.IssuancePolicy().ValidityMonths)
		assert.Equal(t, "renewed.localhost", renewed.X509().Subject.CommonName)
		assert.Equal(t, []string{"renewed.localhost"}, renewed.X509().DNSNames)
		assert.Equal(t, lifetime.AddMonths(renewalTime, 6), renewed.X509().NotAfter)
	})

	t.Run("Success_DeletedNeverRenews", func(t *testing.T) {
		stores := newTestStores(t, entityDomain.Recoverable, entityDomain.IntPtr(90))
		policy := testPolicy(false)
		policy.ValidityMonths = 1
		id, err := stores.certs.CreateCertificateVersion(ctx, "api", policy)
		require.NoError(t, err)
		require.NoError(t, stores.certs.Delete(id.Unversioned()))

		stores.timeShift(t, days(60))

		require.NoError(t, stores.certs.Recover(id.Unversioned()))
		versions, err := stores.certs.Versions(id.Unversioned())
		require.NoError(t, err)
		assert.Equal(t, []string{id.Version}, versions)
	})

	t.Run("Success_Notifications", func(t *testing.T) {
		stores := newTestStores(t, entityDomain.Recoverable, entityDomain.IntPtr(90))
		var events []lifetime.Event
		stores.certs.notifier = lifetime.NotifierFunc(func(_ context.Context, event lifetime.Event) {
			events = append(events, event)
		})
		id, err := stores.certs.CreateCertificateVersion(ctx, "api", testPolicy(false))
		require.NoError(t, err)
		notify := lifetime.Trigger{Kind: lifetime.DaysBeforeExpiry, Value: 30}
		err = stores.certs.SetLifetimeActionPolicy(certDomain.NewLifetimePolicy(id.Unversioned(),
			map[lifetime.Action]lifetime.Trigger{lifetime.ActionNotify: notify}, testNow))
		require.NoError(t, err)

		stores.timeShift(t, days(400))

		require.Len(t, events, 1)
		assert.Equal(t, notify, events[0].Trigger)
		assert.Equal(t, EntityKind, events[0].Kind)
		assert.Equal(t, testNow.AddDate(0, 0, -400).AddDate(1, 0, 0).AddDate(0, 0, -30), events[0].TriggeredAt)
		versions, err := stores.certs.Versions(id.Unversioned())
		require.NoError(t, err)
		assert.Len(t, versions, 1)
	})
}

// TestCertificateStore_RegenerateCertificates tests re-issuing certificates after a time shift.
func TestCertificateStore_RegenerateCertificates(t *testing.T) {
	ctx := context.Background()
	stores := newTestStores(t, entityDomain.Recoverable, entityDomain.IntPtr(90))
	id, err := stores.certs.CreateCertificateVersion(ctx, "api", testPolicy(false))
	require.NoError(t, err)
	original, err := stores.certs.Get(id)
	require.NoError(t, err)
	originalDER := original.DER()

	stores.timeShift(t, days(10))
	require.True(t, original.NeedsRegeneration())

	require.NoError(t, stores.certs.RegenerateCertificates(ctx))

	cert, err := stores.certs.Get(id)
	require.NoError(t, err)
	shifted := testNow.AddDate(0, 0, -10)
	assert.False(t, cert.NeedsRegeneration())
	assert.NotEqual(t, originalDER, cert.DER())
	assert.Equal(t, shifted.Truncate(24*time.Hour), cert.X509().NotBefore)
	assert.Equal(t, shifted.AddDate(1, 0, 0), cert.X509().NotAfter)

	bundle, err := stores.secrets.Value(ctx, cert.Sid())
	require.NoError(t, err)
	_, decoded, _, err := pkcs12.DecodeChain(bundle, "")
	require.NoError(t, err)
	assert.Equal(t, cert.DER(), decoded.Raw)
}
