package middleware

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/audfs/creator-node/internal/domain"
	"github.com/audfs/creator-node/internal/logger"
	"github.com/audfs/creator-node/internal/registry"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// WALLET_KEY holds the validated end-user wallet on mutation routes
	WALLET_KEY contextKey = "wallet"
	// PEER_WALLET_KEY holds the delegate wallet of an authenticated peer node
	PEER_WALLET_KEY contextKey = "peer_wallet"
)

// DefaultNodeTokenTTL bounds how long an issued peer token stays valid.
const DefaultNodeTokenTTL = 5 * time.Minute

// WalletFromContext returns the wallet set by WalletAuth, or "" when absent
func WalletFromContext(c *gin.Context) string {
	if v, ok := c.Get(WALLET_KEY); ok {
		if wallet, ok := v.(string); ok {
			return wallet
		}
	}
	return ""
}

// PeerWalletFromContext returns the delegate wallet set by NodeAuth, or ""
// when absent
func PeerWalletFromContext(c *gin.Context) string {
	if v, ok := c.Get(PEER_WALLET_KEY); ok {
		if wallet, ok := v.(string); ok {
			return wallet
		}
	}
	return ""
}

// WalletAuth returns a gin middleware that extracts and validates the acting
// user wallet on mutation routes. The wallet arrives in the X-User-Wallet
// header or a "wallet" form field; deny-listed wallets are refused.
func WalletAuth(denylist *registry.Denylist) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-User-Wallet")
		if raw == "" {
			raw = c.PostForm("wallet")
		}

		wallet, err := domain.ValidateWallet(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "bad_request", "A valid wallet public key is required")
			return
		}

		if denylist.IsWalletDenied(wallet) {
			logger.Warn("Rejected write for deny-listed wallet",
				zap.String("wallet", wallet),
				zap.String("path", c.Request.URL.Path),
			)
			abortWithError(c, http.StatusForbidden, "forbidden", "Wallet is not permitted on this node")
			return
		}

		c.Set(WALLET_KEY, wallet)
		c.Next()
	}
}

// NodeAuth returns a gin middleware for node-to-node routes. It accepts an
// RS256 bearer token whose issuer is the delegate owner wallet of a node
// registered in the fleet; the matching delegate public key verifies the
// signature.
func NodeAuth(provider registry.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := verifyNodeToken(c.Request.Context(), c.GetHeader("Authorization"), provider)
		if err != nil {
			logger.Warn("Peer authentication failed",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
			)
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Authentication failed")
			return
		}

		c.Set(PEER_WALLET_KEY, domain.NormalizeWallet(claims.Issuer))
		c.Next()
	}
}

// verifyNodeToken validates a peer bearer token against the registry. The
// issuer claim is decoded before the key function runs, so it can select
// the delegate public key to verify with.
func verifyNodeToken(ctx context.Context, authHeader string, provider registry.Provider) (*jwt.RegisteredClaims, error) {
	if provider == nil {
		return nil, errors.New("no registry configured to resolve peer tokens")
	}
	if authHeader == "" {
		return nil, errors.New("missing Authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil, errors.New("invalid Authorization header format")
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method is RSA
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		if claims.Issuer == "" {
			return nil, errors.New("token names no issuer")
		}
		node, err := provider.NodeByWallet(ctx, claims.Issuer)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve token issuer: %w", err)
		}
		if node == nil {
			return nil, fmt.Errorf("token issuer %q is not a registered node", claims.Issuer)
		}
		return parseRSAPublicKey(node.DelegatePublicKey)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	// Validate standard claims
	now := time.Now()
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(now) {
		return nil, errors.New("token has expired")
	}
	if claims.NotBefore != nil && claims.NotBefore.After(now) {
		return nil, errors.New("token not yet valid")
	}

	return claims, nil
}

// NodeTokenSigner issues the short-lived RS256 tokens this node presents to
// its peers. The issuer claim carries the delegate owner wallet that peers
// resolve against the registry.
type NodeTokenSigner struct {
	key    *rsa.PrivateKey
	wallet string
	ttl    time.Duration
}

// NewNodeTokenSigner creates a signer from the node's delegate private key
// in PEM format. A non-positive ttl falls back to DefaultNodeTokenTTL.
func NewNodeTokenSigner(privateKeyPEM, delegateWallet string, ttl time.Duration) (*NodeTokenSigner, error) {
	key, err := parseRSAPrivateKey(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse delegate private key: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultNodeTokenTTL
	}
	return &NodeTokenSigner{
		key:    key,
		wallet: domain.NormalizeWallet(delegateWallet),
		ttl:    ttl,
	}, nil
}

// Token signs a fresh peer token
func (s *NodeTokenSigner) Token() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    s.wallet,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign node token: %w", err)
	}
	return signed, nil
}

// abortWithError stops the request with the shared error envelope. The
// middleware package cannot import the rest package, so the envelope shape
// is built inline.
func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// parseRSAPublicKey parses an RSA public key from PEM format
func parseRSAPublicKey(publicKeyPEM string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil {
		return nil, errors.New("failed to parse PEM block containing public key")
	}

	// Try parsing as PKIX (most common format)
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		// Try parsing as PKCS1 format
		return x509.ParsePKCS1PublicKey(block.Bytes)
	}

	rsaKey, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("public key is not an RSA key")
	}

	return rsaKey, nil
}

// parseRSAPrivateKey parses an RSA private key from PEM format
func parseRSAPrivateKey(privateKeyPEM string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(privateKeyPEM))
	if block == nil {
		return nil, errors.New("failed to parse PEM block containing private key")
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	rsaKey, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not an RSA key")
	}
	return rsaKey, nil
}
