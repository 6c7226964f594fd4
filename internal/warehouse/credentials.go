package warehouse

import (
	"os"

	"github.com/rotisserie/eris"
)

// ErrMissingCredentials means the warehouse credentials file does not exist.
var ErrMissingCredentials = eris.New("warehouse: credentials file not found")

// CheckCredentials verifies the credentials file at path is readable.
func CheckCredentials(path string) error {
	if path == "" {
		return eris.Wrap(ErrMissingCredentials, "warehouse: no credentials path configured")
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return eris.Wrapf(ErrMissingCredentials, "warehouse: %s", path)
		}
		return eris.Wrapf(err, "warehouse: stat credentials %s", path)
	}
	if info.IsDir() {
		return eris.Wrapf(ErrMissingCredentials, "warehouse: %s is a directory", path)
	}
	return nil
}
