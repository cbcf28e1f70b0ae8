// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package config provides configuration loading, merging, and validation
// facilities for the amestris client.
//
// Configuration is assembled from multiple sources; for every field the first
// source that sets it wins:
//  1. Environment variables (and a .env file)
//  2. Command-line flags
//  3. JSON config file
//  4. Built-in defaults
//
// The main entry point is [GetClientConfig].
package config
