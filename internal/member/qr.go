package member

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidQR = errors.New("invalid qr code")

// QRClaims is the payload printed on a member card. It carries no expiry;
// membership validity is checked against the database on every scan.
type QRClaims struct {
	MemberID   int    `json:"member_id"`
	GymID      int    `json:"gym_id"`
	MemberName string `json:"member_name"`
	PlanName   string `json:"plan_name,omitempty"`
	jwt.RegisteredClaims
}

func SignQR(m *Member, secret string) (string, error) {
	claims := QRClaims{
		MemberID:   m.ID,
		GymID:      m.GymID,
		MemberName: m.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  strconv.Itoa(m.ID),
			IssuedAt: jwt.NewNumericDate(m.RegistrationDate),
		},
	}
	if m.PlanName != nil {
		claims.PlanName = *m.PlanName
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign qr payload: %w", err)
	}
	return signed, nil
}

func ParseQR(payload, secret string) (*QRClaims, error) {
	token, err := jwt.ParseWithClaims(payload, &QRClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQR, err)
	}

	claims, ok := token.Claims.(*QRClaims)
	if !ok || !token.Valid || claims.MemberID == 0 || claims.GymID == 0 {
		return nil, ErrInvalidQR
	}
	return claims, nil
}

func qrObjectKey(gymID, memberID int) string {
	return fmt.Sprintf("qrcodes/gym-%d/member-%d-%s.png", gymID, memberID, uuid.NewString())
}
