package statusweb

import "github.com/sirupsen/logrus"

// log reuses the process-wide logrus logger configured by ccwalker's
// logging.go; statusweb only ever runs embedded in the same process.
var log = logrus.StandardLogger()
