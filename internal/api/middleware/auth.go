package middleware

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// WalletLocalKey is the fiber locals key the authenticated wallet address
// is stored under.
const WalletLocalKey = "wallet"

// Claims is the JWT payload carrying the caller's wallet address.
type Claims struct {
	Wallet string `json:"wallet"`
	jwt.RegisteredClaims
}

// GenerateToken issues an HS256 token for wallet. Used by operator tooling
// and tests.
func GenerateToken(secret string, wallet common.Address, opts ...func(*Claims)) (string, error) {
	claims := Claims{Wallet: wallet.Hex()}
	for _, opt := range opts {
		opt(&claims)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// RequireWallet authenticates the request with a Bearer token and stores
// the caller's wallet address in the request locals.
func RequireWallet(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return c.Status(401).JSON(map[string]string{
				"error": "missing bearer token",
			})
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil {
			return c.Status(401).JSON(map[string]string{
				"error": "invalid token",
			})
		}

		claims, ok := token.Claims.(*Claims)
		if !ok || !token.Valid || !common.IsHexAddress(claims.Wallet) {
			return c.Status(401).JSON(map[string]string{
				"error": "invalid token claims",
			})
		}

		c.Locals(WalletLocalKey, common.HexToAddress(claims.Wallet))
		return c.Next()
	}
}

// CallerWallet reads the authenticated wallet from the request locals.
func CallerWallet(c *fiber.Ctx) common.Address {
	if addr, ok := c.Locals(WalletLocalKey).(common.Address); ok {
		return addr
	}
	return common.Address{}
}
