// Package usagecfg loads and validates the ws-usage configuration file.
//
// The file is INI-shaped with two sections, SourceMongo and TargetMongo,
// each describing a connection profile. The source section additionally
// carries the type sets and the workspace exclusion list. All validation
// happens here, before any store connection is attempted.
package usagecfg

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

// DefaultPath is where the config file is looked for when no flag is given.
const DefaultPath = "usage.cfg"

// Section and key names in the config file.
const (
	SectionSource = "SourceMongo"
	SectionTarget = "TargetMongo"

	keyHost = "host"
	keyPort = "port"
	keyDB   = "db"
	keyUser = "user"
	keyPwd  = "pwd"

	keyTypes     = "types"
	keyListObjs  = "list-objects"
	keyExcludeWS = "exclude-ws"
)

// Mongo is a connection profile for one MongoDB instance.
type Mongo struct {
	Host string
	Port int
	DB   string
	User string
	Pwd  string
}

// Config is the parsed and validated configuration.
type Config struct {
	Source Mongo
	Target Mongo

	// IncludeTypes gates the per-type accumulator. A wildcard entry means
	// every type is broken out.
	IncludeTypes *TypeSet
	// ListTypes gates the individual object listing.
	ListTypes *TypeSet
	// ExcludeWorkspaces are workspace ids skipped entirely during the scan.
	ExcludeWorkspaces map[int64]bool
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read file %s: %w", path, err)
	}

	cfg := &Config{ExcludeWorkspaces: map[int64]bool{}}
	for _, sec := range []struct {
		name string
		dst  *Mongo
	}{
		{SectionSource, &cfg.Source},
		{SectionTarget, &cfg.Target},
	} {
		m, err := loadMongoSection(f, sec.name, path)
		if err != nil {
			return nil, err
		}
		*sec.dst = m
	}

	src, _ := f.GetSection(SectionSource)
	cfg.IncludeTypes = NewTypeSet(listValues(src, keyTypes))
	cfg.ListTypes = NewTypeSet(listValues(src, keyListObjs))

	for _, v := range listValues(src, keyExcludeWS) {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("workspace id %s must be an integer", v)
		}
		cfg.ExcludeWorkspaces[id] = true
	}

	return cfg, nil
}

func loadMongoSection(f *ini.File, name, path string) (Mongo, error) {
	var m Mongo
	sec, err := f.GetSection(name)
	if err != nil {
		return m, fmt.Errorf("missing config section %s from file %s", name, path)
	}

	for _, key := range []string{keyHost, keyPort, keyDB} {
		if value(sec, key) == "" {
			return m, fmt.Errorf("missing config value %s.%s from file %s", name, key, path)
		}
	}

	m.Host = value(sec, keyHost)
	m.DB = value(sec, keyDB)

	portStr := value(sec, keyPort)
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return m, fmt.Errorf("port %s is not a valid port number at %s.%s", portStr, name, keyPort)
	}
	m.Port = port

	m.User = value(sec, keyUser)
	m.Pwd = value(sec, keyPwd)
	if m.User != "" && m.Pwd == "" {
		return m, fmt.Errorf("if %s specified, %s must be specified in section %s from file %s",
			keyUser, keyPwd, name, path)
	}

	return m, nil
}

func value(sec *ini.Section, key string) string {
	if !sec.HasKey(key) {
		return ""
	}
	return strings.TrimSpace(sec.Key(key).String())
}

func listValues(sec *ini.Section, key string) []string {
	if !sec.HasKey(key) {
		return nil
	}
	var out []string
	for _, v := range sec.Key(key).Strings(",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
