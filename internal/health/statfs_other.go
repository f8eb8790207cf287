//go:build !(linux || darwin || freebsd)

package health

func statfs(string) (Estimate, error) {
	return Estimate{}, ErrUnsupported
}
