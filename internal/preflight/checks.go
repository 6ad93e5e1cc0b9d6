package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"stitchfetch/internal/config"
	"stitchfetch/internal/stitch"
)

const apiCheckTimeout = 10 * time.Second

// CheckCredentials verifies the API key and project are configured.
func CheckCredentials(cfg *config.Config) Result {
	const name = "Stitch credentials"
	if err := cfg.ValidateCredentials(); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("project %s", cfg.Stitch.ProjectID)}
}

// CheckScreens verifies the configured screen list is non-empty and usable.
func CheckScreens(ids []string) Result {
	const name = "Screens"
	if len(ids) == 0 {
		return Result{Name: name, Detail: "none configured (set fetch.screens or pass ids to fetch)"}
	}
	if err := config.ValidateScreens(ids); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d configured", len(ids))}
}

// CheckStitchAPI fetches metadata for one screen to confirm the endpoint is
// reachable and the key is accepted. It uses a 10-second timeout and a single attempt.
func CheckStitchAPI(ctx context.Context, source stitch.ScreenGetter, screenID string) Result {
	const name = "Stitch API"
	if source == nil {
		return Result{Name: name, Detail: "client not configured"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, apiCheckTimeout)
	defer cancel()

	screen, err := source.GetScreen(checkCtx, screenID)
	if err != nil {
		return Result{Name: name, Detail: summarizeAPIError(screenID, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("screen %s reachable (%d artifacts)", screenID, len(screen.Artifacts()))}
}

// CheckDirectoryAccess verifies that the directory is readable and writable.
// A directory that does not exist yet passes when its nearest existing parent
// is writable, since a run creates it.
func CheckDirectoryAccess(name, path string) Result {
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
		}
		parent, perr := existingAncestor(path)
		if perr != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, perr)}
		}
		if err := unix.Access(parent, unix.W_OK|unix.X_OK); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot create under %s: %v)", path, parent, err)}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func existingAncestor(path string) (string, error) {
	dir := filepath.Clean(path)
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("no existing parent directory")
		}
		dir = parent
		info, err := os.Stat(dir)
		if err == nil {
			if !info.IsDir() {
				return "", fmt.Errorf("%s is not a directory", dir)
			}
			return dir, nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
	}
}

func summarizeAPIError(screenID string, err error) string {
	var apiErr *stitch.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return "auth failed (invalid api key)"
		case http.StatusNotFound:
			return fmt.Sprintf("screen %s not found (check project id)", screenID)
		}
		return apiErr.Error()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out (Stitch API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "request timed out (Stitch API unreachable)"
	}
	return err.Error()
}
