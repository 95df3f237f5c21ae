package ccwalker

import (
	"fmt"
	"io/ioutil"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// Config is the configuration instance the rest of ccwalker should access for
// global configuration values. See CCWalkerConfig for available members.
var Config CCWalkerConfig

// ConfigName is the path (can be relative or absolute) to the config file
// that should be read.
var ConfigName = "ccwalker.yaml"

func init() {
	err := readConfig()
	if err != nil {
		if os.IsNotExist(err) {
			logrus.Infof("did not find config file %v, continuing with defaults", ConfigName)
		} else {
			panic(err.Error())
		}
	}
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.Warnf("failed to load .env: %v", err)
	}
}

// CCWalkerConfig defines the available global configuration parameters for
// ccwalker. It reads values straight from the config file (ccwalker.yaml by
// default); DATABASE_URL always comes from the environment/.env, never from
// this file.
type CCWalkerConfig struct {
	// Bootstrap resources, read once at startup and treated as immutable.
	ManifestPath    string `yaml:"manifest_path"`    // warc.paths
	DomainListPath  string `yaml:"domain_list_path"` // top-1m.txt
	DictionaryPath  string `yaml:"dictionary_path"`  // lemmatised_words.txt
	DomainWhitelist int    `yaml:"domain_whitelist_size"`

	ScratchDir string `yaml:"scratch_dir"` // warc_files/

	Archive struct {
		HostCacheSize int `yaml:"host_cache_size"`
		ProgressEvery int `yaml:"progress_every"`
	} `yaml:"archive"`

	Store struct {
		MaxConns int32 `yaml:"max_conns"`
	} `yaml:"store"`

	Orchestrator struct {
		MaxConcurrentArchives int `yaml:"max_concurrent_archives"` // 0 = runtime.NumCPU(), the logical CPU count
	} `yaml:"orchestrator"`

	Status struct {
		Port int `yaml:"port"`
	} `yaml:"status"`
}

// SetDefaultConfig resets Config to default values, regardless of what was
// set by any configuration file.
func SetDefaultConfig() {
	Config.ManifestPath = "warc.paths"
	Config.DomainListPath = "top-1m.txt"
	Config.DictionaryPath = "lemmatised_words.txt"
	Config.DomainWhitelist = 100000
	Config.ScratchDir = "warc_files"

	Config.Archive.HostCacheSize = 20000
	Config.Archive.ProgressEvery = 1000

	Config.Store.MaxConns = 10

	Config.Orchestrator.MaxConcurrentArchives = 0

	Config.Status.Port = 3000
}

// ReadConfigFile sets a new path for the ccwalker yaml config file and
// forces a reload of the config.
func ReadConfigFile(path string) error {
	ConfigName = path
	return readConfig()
}

func assertConfigInvariants() error {
	var errs []string
	if Config.DomainWhitelist <= 0 {
		errs = append(errs, "domain_whitelist_size must be greater than 0")
	}
	if Config.Archive.HostCacheSize <= 0 {
		errs = append(errs, "archive.host_cache_size must be greater than 0")
	}
	if Config.Orchestrator.MaxConcurrentArchives < 0 {
		errs = append(errs, "orchestrator.max_concurrent_archives must be >= 0 (0 means the logical CPU count)")
	}

	if len(errs) > 0 {
		em := ""
		for _, e := range errs {
			logrus.Errorf("config error: %v", e)
			em += "\t" + e + "\n"
		}
		return fmt.Errorf("config error:\n%v", em)
	}
	return nil
}

func readConfig() error {
	SetDefaultConfig()

	data, err := ioutil.ReadFile(ConfigName)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, &Config); err != nil {
		return fmt.Errorf("failed to unmarshal yaml from config file (%v): %v", ConfigName, err)
	}

	if err := assertConfigInvariants(); err != nil {
		return err
	}
	logrus.Infof("loaded config file %v", ConfigName)
	return nil
}

// RequireDatabaseURL fetches DATABASE_URL from the environment (or the
// .env file loaded at init). A missing DATABASE_URL is fatal at startup.
func RequireDatabaseURL() (string, error) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return "", fmt.Errorf("DATABASE_URL must be set in the environment or .env file")
	}
	return url, nil
}
