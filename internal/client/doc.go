// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client implements the amestris command-line application.
//
// It wires configuration, storage, the request client, session services, the
// realtime bridge and background workers into a single process lifecycle,
// and maps each subcommand onto those services.
package client
