package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/trigconf/internal/config"
	"github.com/roach88/trigconf/internal/synth"
)

// ParamOptions holds the generation parameter flags shared by generate and
// inspect. Only flags the user sets override the config file.
type ParamOptions struct {
	Producers      int
	Slowdown       float64
	RunNumber      int64
	TriggerRate    float64
	Inhibits       bool
	Tokens         bool
	TokensDisabled bool
	Profile        string
	ConfigFile     string
}

func addParamFlags(cmd *cobra.Command, opts *ParamOptions) {
	stock := synth.DefaultParams(synth.ProfileFakeApp)

	f := cmd.Flags()
	f.IntVarP(&opts.Producers, "number-of-data-producers", "n", stock.ProducerCount, "number of links the emulator requests data from")
	f.Float64VarP(&opts.Slowdown, "data-rate-slowdown-factor", "s", stock.SlowdownFactor, "factor by which the hardware clock is slowed down")
	f.Int64VarP(&opts.RunNumber, "run-number", "r", stock.RunNumber, "run number")
	f.Float64VarP(&opts.TriggerRate, "trigger-rate-hz", "t", stock.TriggerRateHz, "trigger rate in Hz")
	f.BoolVar(&opts.Inhibits, "inhibits-enabled", false, "add the fake inhibit generator")
	f.BoolVar(&opts.Tokens, "tokens-enabled", false, "add the fake token generator")
	f.BoolVar(&opts.TokensDisabled, "tokens-disabled", false, "drop the fake token generator")
	f.StringVar(&opts.Profile, "profile", synth.DefaultProfile, "generator profile (fake-app|lifecycle|standalone)")
	f.StringVar(&opts.ConfigFile, "config", "", "YAML file with profile, params and settings")

	cmd.MarkFlagsMutuallyExclusive("tokens-enabled", "tokens-disabled")
}

// spec returns a ParamSpec holding only the flags set on the command line.
func (o *ParamOptions) spec(cmd *cobra.Command) config.ParamSpec {
	var s config.ParamSpec
	f := cmd.Flags()
	if f.Changed("number-of-data-producers") {
		s.NumberOfDataProducers = &o.Producers
	}
	if f.Changed("data-rate-slowdown-factor") {
		s.DataRateSlowdownFactor = &o.Slowdown
	}
	if f.Changed("run-number") {
		s.RunNumber = &o.RunNumber
	}
	if f.Changed("trigger-rate-hz") {
		s.TriggerRateHz = &o.TriggerRate
	}
	if f.Changed("inhibits-enabled") {
		s.InhibitsEnabled = &o.Inhibits
	}
	if f.Changed("tokens-enabled") {
		s.TokensEnabled = &o.Tokens
	}
	if f.Changed("tokens-disabled") {
		enabled := !o.TokensDisabled
		s.TokensEnabled = &enabled
	}
	return s
}

// resolve combines flags, the config file and profile defaults, in that
// order of precedence.
func (o *ParamOptions) resolve(cmd *cobra.Command, formatter *OutputFormatter) (synth.Profile, synth.Params, synth.Settings, error) {
	file := &config.File{}
	if o.ConfigFile != "" {
		if _, err := os.Stat(o.ConfigFile); errors.Is(err, os.ErrNotExist) {
			return synth.Profile{}, synth.Params{}, synth.Settings{},
				formatter.Fail(ExitCommandError, ErrCodeNotFound, "config file not found: "+o.ConfigFile, nil)
		}
		var err error
		if file, err = config.Load(o.ConfigFile); err != nil {
			return synth.Profile{}, synth.Params{}, synth.Settings{},
				formatter.Fail(ExitCommandError, ErrCodeBadConfig, err.Error(), nil)
		}
		formatter.VerboseLog("Loaded config from %s", o.ConfigFile)
	}

	profileFlag := ""
	if cmd.Flags().Changed("profile") {
		profileFlag = o.Profile
	}

	profile, params, settings, err := file.Resolve(profileFlag, o.spec(cmd))
	if err != nil {
		code := synthErrorCode(err)
		if code == ErrCodeGeneric {
			code = ErrCodeBadConfig
		}
		return synth.Profile{}, synth.Params{}, synth.Settings{},
			formatter.Fail(ExitCommandError, code, err.Error(), nil)
	}
	return profile, params, settings, nil
}

// synthesize runs the synthesizer and reports failures with their codes.
func synthesize(formatter *OutputFormatter, profile synth.Profile, params synth.Params, settings synth.Settings) (*synth.Result, error) {
	formatter.VerboseLog("Profile %s, %s", profile.Name, params.Toggles)
	res, err := synth.Synthesize(profile, params, settings)
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, synthErrorCode(err), err.Error(), nil)
	}
	for _, w := range res.Warnings {
		formatter.VerboseLog("warning: %s", w.Error())
	}
	return res, nil
}
