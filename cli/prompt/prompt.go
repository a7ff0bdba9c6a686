// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package prompt reads interactive input for the CLI.
package prompt

import (
	"errors"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/hivefi/counterchain/codec"
)

var (
	ErrInputEmpty    = errors.New("input is empty")
	ErrInvalidChoice = errors.New("invalid choice")
)

func validateAddress(input string) error {
	input = strings.TrimSpace(input)
	if len(input) == 0 {
		return ErrInputEmpty
	}
	_, err := codec.ParseAddress(input)
	return err
}

func validateUint(input string) error {
	input = strings.TrimSpace(input)
	if len(input) == 0 {
		return ErrInputEmpty
	}
	_, err := strconv.ParseUint(input, 10, 64)
	return err
}

func validateYesNo(input string) error {
	if len(input) == 0 {
		return ErrInputEmpty
	}
	lower := strings.ToLower(input)
	if lower == "y" || lower == "n" {
		return nil
	}
	return ErrInvalidChoice
}

func Address(label string) (codec.Address, error) {
	promptText := promptui.Prompt{
		Label:    label,
		Validate: validateAddress,
	}
	raw, err := promptText.Run()
	if err != nil {
		return codec.EmptyAddress, err
	}
	return codec.ParseAddress(strings.TrimSpace(raw))
}

func Uint(label string) (uint64, error) {
	promptText := promptui.Prompt{
		Label:    label,
		Validate: validateUint,
	}
	raw, err := promptText.Run()
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
}

// Continue asks [label] as a yes/no question.
func Continue(label string) (bool, error) {
	promptText := promptui.Prompt{
		Label:    label + " (y/n)",
		Validate: validateYesNo,
	}
	raw, err := promptText.Run()
	if err != nil {
		return false, err
	}
	return strings.ToLower(raw) == "y", nil
}
