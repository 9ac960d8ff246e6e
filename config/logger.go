/*
 * logger.go, part of gopdfgui.
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

package config

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func level(s string) zapcore.Level {
	switch s {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	}
	return zapcore.InfoLevel
}

//NewLogger builds a zap logger writing json or console entries at the
//configured level.
func NewLogger(L LogConfig) (*zap.Logger, error) {
	out := L.Output
	if len(out) == 0 {
		out = []string{"stderr"}
	}
	enc := zap.NewProductionEncoderConfig()
	encoding := "json"
	dev := false
	if L.Format == "console" {
		enc = zap.NewDevelopmentEncoderConfig()
		encoding = "console"
		dev = true
	}
	enc.TimeKey = "ts"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	return zap.Config{
		Level:            zap.NewAtomicLevelAt(level(L.Level)),
		Development:      dev,
		Encoding:         encoding,
		EncoderConfig:    enc,
		OutputPaths:      out,
		ErrorOutputPaths: []string{"stderr"},
	}.Build()
}
