// SPDX-License-Identifier: Apache-2.0

package flags

import (
	"time"

	"github.com/spf13/viper"
)

func URL() string {
	return viper.GetString("URL")
}

func Engine() string {
	return viper.GetString("ENGINE")
}

func Host() string {
	return viper.GetString("HOST")
}

func Port() int {
	return viper.GetInt("PORT")
}

func User() string {
	return viper.GetString("USER")
}

func Password() string {
	return viper.GetString("PASSWORD")
}

func DBName() string {
	return viper.GetString("DBNAME")
}

func Schema() string {
	return viper.GetString("SCHEMA")
}

func Pattern() string {
	return viper.GetString("PATTERN")
}

func Iterations() int { return viper.GetInt("ITERATIONS") }

func Warmup() int { return viper.GetInt("WARMUP") }

func Threshold() float64 {
	return viper.GetFloat64("THRESHOLD")
}

func Metric() string {
	return viper.GetString("METRIC")
}

func Alpha() float64 {
	return viper.GetFloat64("ALPHA")
}

func Concurrency() int { return viper.GetInt("CONCURRENCY") }

func Timeout() time.Duration {
	return viper.GetDuration("TIMEOUT")
}

func QueryTimeout() time.Duration {
	return viper.GetDuration("QUERY_TIMEOUT")
}

func ConnectRetries() int { return viper.GetInt("CONNECT_RETRIES") }

func Rollback() bool {
	return viper.GetBool("ROLLBACK")
}

func Output() string {
	return viper.GetString("OUTPUT")
}

func MetricsFile() string {
	return viper.GetString("METRICS_FILE")
}

func FailOnCleanup() bool {
	return viper.GetBool("FAIL_ON_CLEANUP")
}

func Verbose() bool {
	return viper.GetBool("VERBOSE")
}
