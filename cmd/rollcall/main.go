// Command rollcall runs the attendance reconciliation engine over telematics
// exports for one or more target dates and writes the JSON report(s) to
// stdout or a file. All reconciliation logic lives under pkg/; this binary
// only owns argument parsing and output.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"rollcall/pkg/engine"
	"rollcall/pkg/ingest"
)

// stringList collects a repeatable flag value.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func main() {
	// Optional .env next to the binary; absence is not an error.
	_ = godotenv.Load()

	var driving, activity, dates stringList
	flag.Var(&driving, "driving", "driving-history file (repeatable, .csv or .xlsx)")
	flag.Var(&activity, "activity", "activity-detail file (repeatable, .csv or .xlsx)")
	flag.Var(&dates, "date", "target date YYYY-MM-DD (repeatable)")
	out := flag.String("out", "", "write report JSON to this file instead of stdout")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	cfg := ingest.Config{
		Policy:    policyFromEnv(logger),
		ChunkSize: envInt("ROLLCALL_CHUNK_SIZE", 0),
		Logger:    logger,
	}

	summaries, err := ingest.Run(cfg, driving, activity, dates)
	if err != nil {
		logger.Fatal(err)
	}

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			logger.Fatal(err)
		}
		defer f.Close()
		w = f
	}

	for _, s := range summaries {
		data, err := s.ToJSON()
		if err != nil {
			logger.Fatal(err)
		}
		fmt.Fprintln(w, string(data))
	}
}

// policyFromEnv starts from the default shift policy and applies any
// ROLLCALL_* overrides.
func policyFromEnv(logger *logrus.Logger) engine.ShiftPolicy {
	p := engine.DefaultShiftPolicy()
	if v := os.Getenv("ROLLCALL_SHIFT_START"); v != "" {
		if h, m, ok := parseClock(v); ok {
			p.StartHour, p.StartMinute = h, m
		} else {
			logger.Warnf("ignoring invalid ROLLCALL_SHIFT_START %q", v)
		}
	}
	if v := os.Getenv("ROLLCALL_SHIFT_END"); v != "" {
		if h, m, ok := parseClock(v); ok {
			p.EndHour, p.EndMinute = h, m
		} else {
			logger.Warnf("ignoring invalid ROLLCALL_SHIFT_END %q", v)
		}
	}
	if v := envInt("ROLLCALL_LATE_THRESHOLD_MIN", 0); v > 0 {
		p.LateThresholdMin = v
	}
	if v := envInt("ROLLCALL_EARLY_THRESHOLD_MIN", 0); v > 0 {
		p.EarlyThresholdMin = v
	}
	return p
}

// parseClock parses "HH:MM".
func parseClock(s string) (hour, minute int, ok bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
