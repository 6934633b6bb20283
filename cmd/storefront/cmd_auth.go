// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/awnumar/memguard"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/ilneora/storefront/pkg/apiclient"
	"github.com/ilneora/storefront/pkg/routeguard"
	"github.com/ilneora/storefront/pkg/ux"
)

func runLogin(cmd *cobra.Command, _ []string) error {
	creds, err := promptCredentials(cmd.InOrStdin(), loginUsername, ux.IsInteractive())
	if err != nil {
		return err
	}
	defer creds.Password.Destroy()

	store, err := current.sessions()
	if err != nil {
		return err
	}
	client, err := current.client(false)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	token, err := client.Login(ctx, creds)
	if err != nil {
		current.logger.Warn("login failed", "username", creds.Username, "error", err)
		return errors.New(apiclient.UserMessage(err))
	}
	sess, err := store.Login(ctx, token)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	ux.Success(out, fmt.Sprintf("Logged in as %s (%s)", creds.Username, sess.Role))
	landing := routeguard.LandingFor(sess.Role)
	ux.Muted(out, fmt.Sprintf("Continue at %s %s", landing.Name, landing.Path))
	return nil
}

// promptCredentials collects a username and password. With a terminal it
// shows a form; otherwise the username must come from the flag and the
// password from the first line of in.
func promptCredentials(in io.Reader, username string, interactive bool) (apiclient.Credentials, error) {
	if interactive {
		var password string
		form := huh.NewForm(huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Value(&username).
				Validate(requireText("username")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&password).
				Validate(requireText("password")),
		))
		if err := form.Run(); err != nil {
			return apiclient.Credentials{}, err
		}
		buf := memguard.NewBufferFromBytes([]byte(password))
		return apiclient.Credentials{Username: strings.TrimSpace(username), Password: buf}, nil
	}

	if strings.TrimSpace(username) == "" {
		return apiclient.Credentials{}, errors.New("--username is required without a terminal")
	}
	line, err := bufio.NewReader(in).ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return apiclient.Credentials{}, fmt.Errorf("read password: %w", err)
	}
	line = bytes.TrimRight(line, "\r\n")
	if len(line) == 0 {
		return apiclient.Credentials{}, errors.New("password is required on stdin")
	}
	// NewBufferFromBytes wipes line.
	return apiclient.Credentials{
		Username: strings.TrimSpace(username),
		Password: memguard.NewBufferFromBytes(line),
	}, nil
}

func requireText(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func runLogout(cmd *cobra.Command, _ []string) error {
	store, err := current.sessions()
	if err != nil {
		return err
	}
	if err := store.Logout(cmd.Context()); err != nil {
		return err
	}
	ux.Success(cmd.OutOrStdout(), "Logged out")
	return nil
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	store, err := current.sessions()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	sess, ok, err := store.Current(ctx)
	switch {
	case err != nil:
		return err
	case !ok:
		ux.Info(out, "Not logged in")
	default:
		ux.Info(out, "Role: "+sess.Role)
	}

	g := routeguard.New(store)
	fmt.Fprintln(out, ux.NavBar(g.Links(ctx)))
	return nil
}
