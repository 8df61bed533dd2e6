package domain

// Algorithm represents the AEAD algorithm used by symmetric (oct) key material
// and by the secret value keeper.
type Algorithm string

const (
	// AESGCM is AES in Galois/Counter Mode. Key size selects AES-128, AES-192 or AES-256.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 is ChaCha20-Poly1305. Requires a 256-bit key.
	ChaCha20 Algorithm = "chacha20-poly1305"
)

// KeyType is the kind of key material, named as in the emulated service.
type KeyType string

const (
	KeyTypeRSA    KeyType = "RSA"
	KeyTypeRSAHSM KeyType = "RSA-HSM"
	KeyTypeEC     KeyType = "EC"
	KeyTypeECHSM  KeyType = "EC-HSM"
	KeyTypeOct    KeyType = "oct"
	KeyTypeOctHSM KeyType = "oct-HSM"
)

// IsRSA reports whether the type is an RSA variant.
func (k KeyType) IsRSA() bool {
	return k == KeyTypeRSA || k == KeyTypeRSAHSM
}

// IsEC reports whether the type is an elliptic curve variant.
func (k KeyType) IsEC() bool {
	return k == KeyTypeEC || k == KeyTypeECHSM
}

// IsOct reports whether the type is a symmetric variant.
func (k KeyType) IsOct() bool {
	return k == KeyTypeOct || k == KeyTypeOctHSM
}

// IsHSM reports whether the type is HSM backed.
func (k KeyType) IsHSM() bool {
	return k == KeyTypeRSAHSM || k == KeyTypeECHSM || k == KeyTypeOctHSM
}

// KeyCurve is the elliptic curve of EC keys.
type KeyCurve string

const (
	CurveP256 KeyCurve = "P-256"
	CurveP384 KeyCurve = "P-384"
	CurveP521 KeyCurve = "P-521"
)

// KeyOperation is an operation a key version permits.
type KeyOperation string

const (
	OperationEncrypt   KeyOperation = "encrypt"
	OperationDecrypt   KeyOperation = "decrypt"
	OperationSign      KeyOperation = "sign"
	OperationVerify    KeyOperation = "verify"
	OperationWrapKey   KeyOperation = "wrapKey"
	OperationUnwrapKey KeyOperation = "unwrapKey"
)

// AllKeyOperations lists every key operation, the set granted to certificate keys.
var AllKeyOperations = []KeyOperation{
	OperationEncrypt,
	OperationDecrypt,
	OperationSign,
	OperationVerify,
	OperationWrapKey,
	OperationUnwrapKey,
}

// EncryptionAlgorithm names an encrypt/decrypt algorithm.
type EncryptionAlgorithm string

const (
	RSAOAEP    EncryptionAlgorithm = "RSA-OAEP"
	RSAOAEP256 EncryptionAlgorithm = "RSA-OAEP-256"
	RSA15      EncryptionAlgorithm = "RSA1_5"
	A128GCM    EncryptionAlgorithm = "A128GCM"
	A192GCM    EncryptionAlgorithm = "A192GCM"
	A256GCM    EncryptionAlgorithm = "A256GCM"
	C20P       EncryptionAlgorithm = "C20P"
)

// SignatureAlgorithm names a sign/verify algorithm.
type SignatureAlgorithm string

const (
	PS256 SignatureAlgorithm = "PS256"
	PS384 SignatureAlgorithm = "PS384"
	PS512 SignatureAlgorithm = "PS512"
	RS256 SignatureAlgorithm = "RS256"
	RS384 SignatureAlgorithm = "RS384"
	RS512 SignatureAlgorithm = "RS512"
	ES256 SignatureAlgorithm = "ES256"
	ES384 SignatureAlgorithm = "ES384"
	ES512 SignatureAlgorithm = "ES512"
)

// CertContentType is the container format of a certificate backing secret.
type CertContentType string

const (
	ContentTypePEM    CertContentType = "application/x-pem-file"
	ContentTypePKCS12 CertContentType = "application/x-pkcs12"
)
