/*
 * config.go, part of gopdfgui.
 * 
 * Copyright 2026 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 * 
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as 
 * published by the Free Software Foundation; either version 2.1 of the 
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General 
 * Public License along with this program.  If not, see 
 * <http://www.gnu.org/licenses/>.
 * 
 */
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

//Package config loads the settings of pdfgui from an optional YAML file
//and PDFGUI_* environment variables, and builds the logger they describe.
package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	pdfgui "github.com/rmera/gopdfgui"
	"github.com/spf13/viper"
)

//EnvPrefix prefixes the environment variables that override settings:
//PDFGUI_LOG_LEVEL overrides log.level.
const EnvPrefix = "PDFGUI"

type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Archive ArchiveConfig `mapstructure:"archive"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	//Format is json for production logs and console for development ones.
	Format string `mapstructure:"format" validate:"oneof=json console"`
	//Output lists the zap sinks, such as stderr or a file path.
	Output []string `mapstructure:"output" validate:"min=1,dive,required"`
}

//EngineConfig holds the limits of the built-in refinement engine.
type EngineConfig struct {
	MaxIterations  int     `mapstructure:"maxiterations" validate:"gte=1"`
	MaxEvaluations int     `mapstructure:"maxevaluations" validate:"gte=0"`
	Tolerance      float64 `mapstructure:"tolerance" validate:"gt=0"`
	Stall          int     `mapstructure:"stall" validate:"gte=1"`
}

type ArchiveConfig struct {
	Compression string `mapstructure:"compression" validate:"oneof=deflate zstd"`
}

var defaults = map[string]any{
	"log.level":             "info",
	"log.format":            "console",
	"log.output":            []string{"stderr"},
	"engine.maxiterations":  2000,
	"engine.maxevaluations": 0,
	"engine.tolerance":      1e-8,
	"engine.stall":          50,
	"archive.compression":   "deflate",
}

//Default returns the configuration used when nothing is set.
func Default() *Config {
	C, err := unmarshal(newViper())
	if err != nil {
		panic(err)
	}
	return C
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	return v
}

//Load reads the YAML file at path, if path is not empty, and applies the
//environment overrides and defaults. The result is validated.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, pdfgui.WrapError(pdfgui.FileError, err, "cannot read configuration").WithFile(path)
		}
	}
	C, err := unmarshal(v)
	if err != nil {
		if e, ok := err.(*pdfgui.Error); ok && path != "" {
			e.WithFile(path)
		}
		return nil, err
	}
	return C, nil
}

func unmarshal(v *viper.Viper) (*Config, error) {
	C := &Config{}
	if err := v.Unmarshal(C); err != nil {
		return nil, pdfgui.WrapError(pdfgui.ConfigError, err, "malformed configuration")
	}
	C.Log.Level = strings.ToLower(C.Log.Level)
	C.Log.Format = strings.ToLower(C.Log.Format)
	C.Archive.Compression = strings.ToLower(C.Archive.Compression)
	if err := C.Validate(); err != nil {
		return nil, err
	}
	return C, nil
}

var validate = validator.New()

//Validate checks every setting against its allowed values.
func (C *Config) Validate() error {
	if err := validate.Struct(C); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, len(verrs))
			for i, e := range verrs {
				msgs[i] = e.Namespace() + " fails " + e.Tag()
			}
			return pdfgui.WrapError(pdfgui.ConfigError, err, "invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return pdfgui.WrapError(pdfgui.ConfigError, err, "invalid configuration")
	}
	return nil
}
