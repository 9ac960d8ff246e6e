/*
 * errors.go, part of gopdfgui.
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

package pdfgui

import (
	"errors"
	"fmt"
	"strings"
)

//Kind classifies the errors produced by the library. Kinds satisfy
//the error interface, so errors.Is(err, KeyError) works on any *Error.
type Kind string

func (k Kind) Error() string { return string(k) }

const (
	ConfigError  Kind = "config error"
	KeyError     Kind = "key error"
	TypeError    Kind = "type error"
	FileError    Kind = "file error"
	StatusError  Kind = "status error"
	RuntimeError Kind = "runtime error"
)

//SelfDependent is the message of the RuntimeError returned when
//a chain of parameter links never reaches a number.
const SelfDependent = "self-dependent parameter"

//Error is the error type returned by all packages in gopdfgui.
type Error struct {
	kind     Kind
	message  string
	filename string
	deco     []string
	cause    error
}

//NewError returns an error of the given kind with a formatted message.
func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...)}
}

//WrapError returns an error of the given kind that wraps cause.
func WrapError(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...), cause: cause}
}

//Error returns a string with an error message.
func (E *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(E.kind))
	b.WriteString(": ")
	b.WriteString(E.message)
	if E.filename != "" {
		b.WriteString(" (file: " + E.filename + ")")
	}
	if E.cause != nil {
		b.WriteString(": " + E.cause.Error())
	}
	return b.String()
}

func (E *Error) Kind() Kind { return E.kind }

func (E *Error) Message() string { return E.message }

func (E *Error) FileName() string { return E.filename }

func (E *Error) Unwrap() error { return E.cause }

//Is reports whether target is the Kind of the error.
func (E *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == E.kind
}

//WithFile sets the name of the file related to the error and returns the error.
func (E *Error) WithFile(name string) *Error {
	E.filename = name
	return E
}

//Decorate adds dec to the decoration trail of the error and returns the trail.
//An empty dec only returns the current trail.
func (E *Error) Decorate(dec string) []string {
	if dec != "" {
		E.deco = append(E.deco, dec)
	}
	return E.deco
}

//ErrDecorate decorates err with the caller name if err is an *Error,
//and returns it. Other errors are returned unchanged.
func ErrDecorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		e.Decorate(caller)
	}
	return err
}

//IsKind reports whether err, or an error it wraps, has the given kind.
func IsKind(err error, k Kind) bool {
	return errors.Is(err, k)
}
