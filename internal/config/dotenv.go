package config

import (
	"fmt"

	"github.com/joho/godotenv"
)

// LoadEnvFile carrega um arquivo .env para o ambiente do processo antes do
// Load. Variáveis já definidas não são sobrescritas. path vazio não faz nada.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: env file %s: %w", path, err)
	}
	return nil
}
