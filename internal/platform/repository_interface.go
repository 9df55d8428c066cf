package platform

import "context"

type Repository interface {
	Settings(ctx context.Context) (map[string]string, error)
	SaveSettings(ctx context.Context, s *Settings) error
}
