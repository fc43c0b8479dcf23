package auth

import "context"

type Service struct {
	jwt *JWTManager
}

func NewService(jwtManager *JWTManager) *Service {
	return &Service{jwt: jwtManager}
}

func (s *Service) ValidateAccessToken(_ context.Context, raw string) (AccessClaims, error) {
	if s.jwt == nil {
		return AccessClaims{}, ErrUnauthorized
	}
	return s.jwt.ParseAccessToken(raw)
}
