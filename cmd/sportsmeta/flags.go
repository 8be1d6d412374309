package main

import (
	"time"

	"github.com/albapepper/sportsmeta/internal/config"
)

// secondsValue is a duration flag that also takes plain seconds ("2.1"),
// matching the SPORTSMETA_* environment variables.
type secondsValue time.Duration

func newSecondsValue(p *time.Duration) *secondsValue {
	return (*secondsValue)(p)
}

func (s *secondsValue) Set(v string) error {
	d, err := config.ParseSeconds(v)
	if err != nil {
		return err
	}
	*s = secondsValue(d)
	return nil
}

func (s *secondsValue) String() string { return time.Duration(*s).String() }

func (s *secondsValue) Type() string { return "seconds" }
