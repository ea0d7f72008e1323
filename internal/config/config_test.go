/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"testing"
	"time"
)

type fakeTokenStore struct {
	vals map[string]string
}

func (f *fakeTokenStore) Get(service, key string) (string, error) {
	v, ok := f.vals[service+"/"+key]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}
func (f *fakeTokenStore) Set(service, key, value string) error {
	f.vals[service+"/"+key] = value
	return nil
}
func (f *fakeTokenStore) Delete(service, key string) error {
	delete(f.vals, service+"/"+key)
	return nil
}

func withFakeStore(t *testing.T) *fakeTokenStore {
	t.Helper()
	fs := &fakeTokenStore{vals: map[string]string{}}
	prev := SetTokenStore(fs)
	t.Cleanup(func() { SetTokenStore(prev) })
	return fs
}

func TestEnvOverridesBackendURL(t *testing.T) {
	withFakeStore(t)
	old := os.Getenv(EnvBackendURL)
	_ = os.Setenv(EnvBackendURL, "https://example.test:8443")
	t.Cleanup(func() { _ = os.Setenv(EnvBackendURL, old) })
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got, want := cfg.Backend.BaseURL, "https://example.test:8443"; got != want {
		t.Fatalf("Backend.BaseURL = %q, want %q", got, want)
	}
}

func TestEnvOverridesStage(t *testing.T) {
	withFakeStore(t)
	oldW := os.Getenv(EnvStageWidth)
	oldH := os.Getenv(EnvStageHeight)
	_ = os.Setenv(EnvStageWidth, "1600")
	_ = os.Setenv(EnvStageHeight, "900")
	t.Cleanup(func() {
		_ = os.Setenv(EnvStageWidth, oldW)
		_ = os.Setenv(EnvStageHeight, oldH)
	})
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Stage.Width != 1600 || cfg.Stage.Height != 900 {
		t.Fatalf("stage env overrides not applied: %#v", cfg.Stage)
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "debug"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "C:/tmp/smp.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "C:/tmp/smp.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestMergeKeepsDefaultStageWhenUnset(t *testing.T) {
	dst := Defaults()
	src := AppConfig{}
	mergeInto(&dst, &src)
	if dst.Stage.Width != Defaults().Stage.Width || dst.Stage.Height != Defaults().Stage.Height {
		t.Fatalf("zero stage values must not clobber defaults: %#v", dst.Stage)
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	withFakeStore(t)
	oldLevel := os.Getenv(EnvLogLevel)
	oldFmt := os.Getenv(EnvLogFormat)
	oldSrc := os.Getenv(EnvLogSource)
	oldFile := os.Getenv(EnvLogFile)
	_ = os.Setenv(EnvLogLevel, "error")
	_ = os.Setenv(EnvLogFormat, "json")
	_ = os.Setenv(EnvLogSource, "1")
	_ = os.Setenv(EnvLogFile, "X:/smp.log")
	t.Cleanup(func() {
		_ = os.Setenv(EnvLogLevel, oldLevel)
		_ = os.Setenv(EnvLogFormat, oldFmt)
		_ = os.Setenv(EnvLogSource, oldSrc)
		_ = os.Setenv(EnvLogFile, oldFile)
	})
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "X:/smp.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
}

func TestTokenRoundTripThroughStore(t *testing.T) {
	fs := withFakeStore(t)
	if err := fs.Set(keyringService, keyringToken, "tok123"); err != nil {
		t.Fatalf("Set token: %v", err)
	}
	_, tok, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if tok != "tok123" {
		t.Fatalf("token = %q, want %q", tok, "tok123")
	}
}

func TestEffectiveTimeout(t *testing.T) {
	b := BackendConfig{TimeoutMs: 2500}
	if got := b.EffectiveTimeout(); got != 2500*time.Millisecond {
		t.Fatalf("EffectiveTimeout = %v", got)
	}
	b = BackendConfig{TimeoutMs: 0}
	if got := b.EffectiveTimeout(); got != time.Duration(Defaults().Backend.TimeoutMs)*time.Millisecond {
		t.Fatalf("EffectiveTimeout default = %v", got)
	}
}
