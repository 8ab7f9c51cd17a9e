package database

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	go_ora "github.com/sijms/go-ora/v2"
)

var defaultPorts = map[string]int{
	"oracle":   1521,
	"postgres": 5432,
	"mysql":    3306,
}

// DetectDriver returns the driver based on the connect string's URL scheme.
// Supported schemes: oracle, postgres/postgresql, mysql, sqlite/file.
func DetectDriver(target string) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("parse connect string: %w", err)
	}
	switch u.Scheme {
	case "oracle":
		return "oracle", nil
	case "postgres", "postgresql":
		return "postgres", nil
	case "mysql":
		return "mysql", nil
	case "sqlite", "file":
		return "sqlite", nil
	default:
		return "", fmt.Errorf("cannot detect driver from connect string scheme %q", u.Scheme)
	}
}

// DSN turns a connect string and credentials into a data source name for
// driver. The connect string is either a URL for that driver or the short
// form host[:port]/name (service name for oracle, database for the rest).
func DSN(driver, target, user, password string) (string, error) {
	if driver == "auto" {
		d, err := DetectDriver(target)
		if err != nil {
			return "", err
		}
		driver = d
	}
	switch driver {
	case "oracle":
		return oracleDSN(target, user, password)
	case "postgres":
		return postgresDSN(target, user, password)
	case "mysql":
		return mysqlDSN(target, user, password)
	case "sqlite":
		return sqliteDSN(target), nil
	default:
		return "", fmt.Errorf("unsupported driver %q", driver)
	}
}

// Describe returns target with any password removed, for logging.
func Describe(target string) string {
	if strings.Contains(target, "://") {
		if u, err := url.Parse(target); err == nil {
			return u.Redacted()
		}
	}
	return target
}

func oracleDSN(target, user, password string) (string, error) {
	if strings.HasPrefix(target, "oracle://") {
		return withUserInfo(target, user, password)
	}
	host, port, service, err := splitTarget(target, defaultPorts["oracle"])
	if err != nil {
		return "", err
	}
	return go_ora.BuildUrl(host, port, service, user, password, nil), nil
}

func postgresDSN(target, user, password string) (string, error) {
	if strings.HasPrefix(target, "postgres://") || strings.HasPrefix(target, "postgresql://") {
		return withUserInfo(target, user, password)
	}
	host, port, db, err := splitTarget(target, defaultPorts["postgres"])
	if err != nil {
		return "", err
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(user, password),
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   "/" + db,
	}
	return u.String(), nil
}

func mysqlDSN(target, user, password string) (string, error) {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.User = user
	cfg.Passwd = password

	if strings.HasPrefix(target, "mysql://") {
		u, err := url.Parse(target)
		if err != nil {
			return "", fmt.Errorf("parse connect string: %w", err)
		}
		if u.User != nil {
			cfg.User = u.User.Username()
			if p, ok := u.User.Password(); ok {
				cfg.Passwd = p
			}
		}
		cfg.Addr = u.Host
		if u.Port() == "" {
			cfg.Addr = net.JoinHostPort(u.Hostname(), strconv.Itoa(defaultPorts["mysql"]))
		}
		cfg.DBName = strings.TrimPrefix(u.Path, "/")
		return cfg.FormatDSN(), nil
	}

	host, port, db, err := splitTarget(target, defaultPorts["mysql"])
	if err != nil {
		return "", err
	}
	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	cfg.DBName = db
	return cfg.FormatDSN(), nil
}

// sqliteDSN accepts a path, ":memory:", a file: URI or sqlite://path.
// Credentials do not apply.
func sqliteDSN(target string) string {
	return strings.TrimPrefix(target, "sqlite://")
}

// withUserInfo fills in credentials on a URL connect string that has none.
func withUserInfo(target, user, password string) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("parse connect string: %w", err)
	}
	if u.User == nil || u.User.Username() == "" {
		u.User = url.UserPassword(user, password)
	}
	return u.String(), nil
}

// splitTarget parses host[:port]/name.
func splitTarget(target string, defPort int) (host string, port int, name string, err error) {
	addr, name, ok := strings.Cut(strings.TrimSpace(target), "/")
	if !ok || addr == "" || name == "" {
		return "", 0, "", fmt.Errorf("connect string %q: want host[:port]/name", target)
	}
	host, port = addr, defPort
	if h, p, splitErr := net.SplitHostPort(addr); splitErr == nil {
		n, convErr := strconv.Atoi(p)
		if convErr != nil || n <= 0 || n > 65535 {
			return "", 0, "", fmt.Errorf("connect string %q: bad port %q", target, p)
		}
		host, port = h, n
	}
	return host, port, name, nil
}
