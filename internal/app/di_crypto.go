package app

import (
	"context"
	"fmt"

	cryptoDomain "github.com/allisson/vaultemu/internal/crypto/domain"
	cryptoService "github.com/allisson/vaultemu/internal/crypto/service"
)

// AEADManager returns the AEAD manager service.
func (c *Container) AEADManager() cryptoService.AEADManager {
	c.aeadManagerInit.Do(func() {
		c.aeadManager = c.initAEADManager()
	})
	return c.aeadManager
}

// KMSService returns the KMS service.
func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = c.initKMSService()
	})
	return c.kmsService
}

// CryptoProvider returns the provider generating key material and certificates.
func (c *Container) CryptoProvider() *cryptoService.CryptoProvider {
	c.cryptoProviderInit.Do(func() {
		c.cryptoProvider = c.initCryptoProvider()
	})
	return c.cryptoProvider
}

// SecretKeeper returns the keeper sealing secret values at rest.
func (c *Container) SecretKeeper() (cryptoDomain.KMSKeeper, error) {
	var err error
	c.secretKeeperInit.Do(func() {
		c.secretKeeper, err = c.initSecretKeeper()
		if err != nil {
			c.setInitError("secretKeeper", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.getInitError("secretKeeper"); exists {
		return nil, storedErr
	}
	return c.secretKeeper, nil
}

// initAEADManager creates the AEAD manager service.
func (c *Container) initAEADManager() cryptoService.AEADManager {
	return cryptoService.NewAEADManager()
}

// initKMSService creates the KMS service opening gocloud.dev keepers.
func (c *Container) initKMSService() cryptoService.KMSService {
	return cryptoService.NewKMSService()
}

// initCryptoProvider creates the crypto provider using the AEAD manager.
func (c *Container) initCryptoProvider() *cryptoService.CryptoProvider {
	return cryptoService.NewCryptoProvider(c.AEADManager())
}

// initSecretKeeper opens the keeper configured by SECRET_KEEPER_URL.
func (c *Container) initSecretKeeper() (cryptoDomain.KMSKeeper, error) {
	keeper, err := c.KMSService().OpenKeeper(context.Background(), c.config.SecretKeeperURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open secret keeper: %w", err)
	}
	return keeper, nil
}
