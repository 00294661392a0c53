package utils

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var JWTSecret []byte

func init() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Printf("Warning: JWT_SECRET not found in environment, using default secret")
		secret = "LunchLineDevSecret1990"
	}

	JWTSecret = []byte(secret)
}

// SessionClaims identifies a session token. The token is only a pointer:
// every request still resolves the session row in the database, so an
// abandoned session stops working no matter how long the token lives.
type SessionClaims struct {
	SessionID uint `json:"session_id"`
	StationID uint `json:"station_id"`
	UserID    uint `json:"user_id"`
	jwt.RegisteredClaims
}

func GenerateSessionToken(sessionID, stationID, userID uint) (string, error) {
	claims := &SessionClaims{
		SessionID: sessionID,
		StationID: stationID,
		UserID:    userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 24)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "LunchLinePOS",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(JWTSecret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func ParseSessionToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return JWTSecret, nil
	})

	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}
