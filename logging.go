package ccwalker

import (
	"os"

	"github.com/sirupsen/logrus"
)

// log is the package-wide logger. Verbosity comes from CCWALKER_LOG_LEVEL
// (any level name logrus accepts); the default is info.
var log = logrus.StandardLogger()

func init() {
	log.SetOutput(os.Stderr)
	if lvl, err := logrus.ParseLevel(os.Getenv("CCWALKER_LOG_LEVEL")); err == nil {
		log.SetLevel(lvl)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
}
