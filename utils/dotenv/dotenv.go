package dotenv

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnvs loads the .env files following the convention:
// https://github.com/bkeepers/dotenv#what-other-env-files-can-i-use
// It only needs to be called once in main function, other code can read env
// through os.Getenv during runtime.
func LoadDotEnvs() error {
	loadDotEnvs("")
	return nil
}

func loadDotEnvs(rootPath string) {
	env := os.Getenv("VIRALMUX_ENV")
	if env == "" {
		env = "dev"
	}

	// .env.[runtime_env].local has highest priority, usually contains
	// credentials like the microblog bearer token and the DB password.
	godotenv.Load(rootPath + ".env." + env + ".local")
	godotenv.Load(rootPath + ".env.local")
	// .env.[runtime_env] usually contains connection information
	godotenv.Load(rootPath + ".env." + env)
	// .env contains shared variables, which might be overwritten by the above
	godotenv.Load(rootPath + ".env")
}
