// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package token

import (
	"bytes"
	"encoding/base64"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/tokenrelay/lib/secret"
)

// Credential file names inside the credential directory.
const (
	EncryptionKeyFile = "ENCRYPTION_KEY"
	TLSCertFile       = "TLS_CERT"
	TLSKeyFile        = "TLS_KEY"
)

// LoadOrCreateKey loads the process key from the ENCRYPTION_KEY file in
// credentialsDir, or generates a new one if the directory is unset, the
// file is missing, or its content is not a usable key. A generated key is
// logged so an operator can capture it; it is not written anywhere else.
// The boolean result reports whether the key was generated.
//
// The file holds padded URL-safe base64 (padding optional). Material
// longer than KeySize is truncated.
func LoadOrCreateKey(credentialsDir string, logger *slog.Logger) (*Key, bool, error) {
	if credentialsDir != "" {
		key, err := loadKey(filepath.Join(credentialsDir, EncryptionKeyFile))
		if err == nil {
			logger.Info("loaded encryption key", "directory", credentialsDir)
			return key, false, nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			logger.Info("no encryption key file, generating", "directory", credentialsDir)
		} else {
			logger.Warn("unusable encryption key file, generating", "directory", credentialsDir, "error", err)
		}
	}

	key, err := GenerateKey()
	if err != nil {
		return nil, false, err
	}
	logger.Info("created encryption key", "key", key.Encode())
	return key, true, nil
}

func loadKey(path string) (*Key, error) {
	encoded, err := secret.ReadFile(path)
	if err != nil {
		return nil, err
	}
	defer encoded.Close()

	text := bytes.TrimRight(encoded.Bytes(), "=")
	material := make([]byte, base64.RawURLEncoding.DecodedLen(len(text)))
	length, err := base64.RawURLEncoding.Decode(material, text)
	if err != nil {
		secret.Zero(material)
		return nil, err
	}
	return KeyFromBytes(material[:length])
}

// TLSCredentials names the certificate and key files for the encrypted
// listener.
type TLSCredentials struct {
	CertFile string
	KeyFile  string
}

// LoadTLSCredentials returns the TLS file paths from credentialsDir when
// both TLS_CERT and TLS_KEY exist as regular files, or nil otherwise.
func LoadTLSCredentials(credentialsDir string) *TLSCredentials {
	if credentialsDir == "" {
		return nil
	}
	credentials := &TLSCredentials{
		CertFile: filepath.Join(credentialsDir, TLSCertFile),
		KeyFile:  filepath.Join(credentialsDir, TLSKeyFile),
	}
	if !isRegularFile(credentials.CertFile) || !isRegularFile(credentials.KeyFile) {
		return nil
	}
	return credentials
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
