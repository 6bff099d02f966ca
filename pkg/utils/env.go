package utils

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Env interface {
	uint | int | bool | string | time.Duration
}

// GetEnv reads key from the environment, falling back to defaultVal. It panics
// when a required key is missing or a value can not be parsed into T.
func GetEnv[T Env](key string, defaultVal string, required bool) T {
	var retVal T

	val, ok := os.LookupEnv(key)
	if !ok {
		if required {
			panic(fmt.Sprintf("env %s is required", key))
		}

		val = defaultVal
	}

	var err error

	switch ptr := any(&retVal).(type) {
	case *uint:
		var parsed uint64

		parsed, err = strconv.ParseUint(val, 10, 32)
		*ptr = uint(parsed)
	case *int:
		*ptr, err = strconv.Atoi(val)
	case *bool:
		*ptr, err = strconv.ParseBool(val)
	case *time.Duration:
		*ptr, err = time.ParseDuration(val)
	case *string:
		*ptr = val
	}

	if err != nil {
		panic(fmt.Sprintf("error: parsing env %s=%s", key, val))
	}

	return retVal
}
