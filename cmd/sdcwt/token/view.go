// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package token

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/sdcwt/lib/claimset"
	"github.com/bureau-foundation/sdcwt/lib/sdcwt"
)

// tokenView is the JSON rendering of a token.
type tokenView struct {
	Protected   protectedView   `json:"protected"`
	Unprotected unprotectedView `json:"unprotected"`
	Payload     payloadView     `json:"payload"`
	Signature   string          `json:"signature"`
}

type protectedView struct {
	Alg    json.Number   `json:"alg"`
	Typ    string        `json:"typ"`
	Custom orderedObject `json:"custom"`
}

type unprotectedView struct {
	SdClaims []disclosureView `json:"sd_claims,omitempty"`
	SdKbt    *string          `json:"sd_kbt,omitempty"`
	Custom   orderedObject    `json:"custom"`
}

// disclosureView is a salted claim when Index is set, a salted array
// element otherwise.
type disclosureView struct {
	Salt  string `json:"salt"`
	Index any    `json:"index,omitempty"`
	Value any    `json:"value"`
}

type payloadView struct {
	Iss          *string        `json:"iss,omitempty"`
	Sub          *string        `json:"sub,omitempty"`
	Aud          string         `json:"aud"`
	Exp          *json.Number   `json:"exp,omitempty"`
	Nbf          *json.Number   `json:"nbf,omitempty"`
	Iat          json.Number    `json:"iat"`
	Cnonce       *string        `json:"cnonce,omitempty"`
	Cnf          *orderedObject `json:"cnf,omitempty"`
	SdHash       *string        `json:"sd_hash,omitempty"`
	SdAlg        *json.Number   `json:"sd_alg,omitempty"`
	RedactedKeys []string       `json:"redacted_keys,omitempty"`
	Custom       orderedObject  `json:"custom"`
}

// orderedObject is a JSON object whose members keep their order.
type orderedObject []objectMember

type objectMember struct {
	key   string
	value any
}

func (o orderedObject) MarshalJSON() ([]byte, error) {
	var buffer bytes.Buffer
	buffer.WriteByte('{')
	for position, member := range o {
		if position > 0 {
			buffer.WriteByte(',')
		}
		key, err := json.Marshal(member.key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(member.value)
		if err != nil {
			return nil, fmt.Errorf("member %s: %w", key, err)
		}
		buffer.Write(key)
		buffer.WriteByte(':')
		buffer.Write(value)
	}
	buffer.WriteByte('}')
	return buffer.Bytes(), nil
}

// renderToken builds the JSON view of token.
func renderToken(token *sdcwt.SdCwt) (*tokenView, error) {
	view := &tokenView{Signature: hex.EncodeToString(token.Signature)}
	var err error

	view.Protected.Alg = json.Number(token.Protected.Alg.String())
	view.Protected.Typ = token.Protected.Typ
	if view.Protected.Custom, err = renderMap(token.Protected.Custom); err != nil {
		return nil, fmt.Errorf("protected custom: %w", err)
	}

	for position, disclosure := range token.Unprotected.SdClaims {
		rendered, err := renderDisclosure(disclosure)
		if err != nil {
			return nil, fmt.Errorf("sd_claims[%d]: %w", position, err)
		}
		view.Unprotected.SdClaims = append(view.Unprotected.SdClaims, rendered)
	}
	view.Unprotected.SdKbt = optionalHex(token.Unprotected.SdKbt)
	if view.Unprotected.Custom, err = renderMap(token.Unprotected.Custom); err != nil {
		return nil, fmt.Errorf("unprotected custom: %w", err)
	}

	payload := &token.Payload
	view.Payload = payloadView{
		Iss:    payload.Iss,
		Sub:    payload.Sub,
		Aud:    payload.Aud,
		Exp:    optionalNumber(payload.Exp),
		Nbf:    optionalNumber(payload.Nbf),
		Iat:    json.Number(payload.Iat.String()),
		Cnonce: optionalHex(payload.Cnonce),
		SdHash: optionalHex(payload.SdHash),
		SdAlg:  optionalNumber(payload.SdAlg),
	}
	if payload.Cnf != nil {
		cnf, err := renderMap(payload.Cnf)
		if err != nil {
			return nil, fmt.Errorf("cnf: %w", err)
		}
		view.Payload.Cnf = &cnf
	}
	for _, digest := range payload.RedactedKeys {
		view.Payload.RedactedKeys = append(view.Payload.RedactedKeys, hex.EncodeToString(digest))
	}
	if view.Payload.Custom, err = renderMap(payload.Custom); err != nil {
		return nil, fmt.Errorf("payload custom: %w", err)
	}
	return view, nil
}

func renderDisclosure(disclosure sdcwt.Salted) (disclosureView, error) {
	var (
		salt  []byte
		index any
		value sdcwt.Value
	)
	if claim, ok := disclosure.Claim(); ok {
		salt, value = claim.Salt, claim.Value
		if text, isText := claim.Index.Text(); isText {
			index = text
		} else {
			integer, _ := claim.Index.Int()
			index = json.Number(integer.String())
		}
	} else {
		element, _ := disclosure.Element()
		salt, value = element.Salt, element.Value
	}
	rendered, err := value.Interface()
	if err != nil {
		return disclosureView{}, err
	}
	return disclosureView{Salt: hex.EncodeToString(salt), Index: index, Value: rendered}, nil
}

// renderMap renders an extension map. A nil map renders as empty, the
// way it encodes.
func renderMap(m *sdcwt.OrderedMap) (orderedObject, error) {
	object := orderedObject{}
	if m == nil {
		return object, nil
	}
	for key, value := range m.All() {
		name, isText := key.Text()
		if !isText {
			integer, _ := key.Int()
			name = integer.String()
		}
		rendered, err := value.Interface()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		object = append(object, objectMember{key: name, value: rendered})
	}
	return object, nil
}

func optionalHex(data []byte) *string {
	if data == nil {
		return nil
	}
	encoded := hex.EncodeToString(data)
	return &encoded
}

func optionalNumber(value *sdcwt.Int) *json.Number {
	if value == nil {
		return nil
	}
	number := json.Number(value.String())
	return &number
}

// writeView writes the JSON view of token to w.
func writeView(w io.Writer, token *sdcwt.SdCwt, compact bool) error {
	view, err := renderToken(token)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	if !compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(view)
}

// viewDocument is the parse side of tokenView. Integers stay text until
// sdcwt.ParseInt sees them, and maps stay nodes so their order and key
// types survive.
type viewDocument struct {
	Protected struct {
		Alg    string    `yaml:"alg"`
		Typ    string    `yaml:"typ"`
		Custom yaml.Node `yaml:"custom"`
	} `yaml:"protected"`
	Unprotected struct {
		SdClaims *[]struct {
			Salt  string    `yaml:"salt"`
			Index yaml.Node `yaml:"index"`
			Value yaml.Node `yaml:"value"`
		} `yaml:"sd_claims"`
		SdKbt  *string   `yaml:"sd_kbt"`
		Custom yaml.Node `yaml:"custom"`
	} `yaml:"unprotected"`
	Payload struct {
		Iss          *string   `yaml:"iss"`
		Sub          *string   `yaml:"sub"`
		Aud          string    `yaml:"aud"`
		Exp          *string   `yaml:"exp"`
		Nbf          *string   `yaml:"nbf"`
		Iat          string    `yaml:"iat"`
		Cnonce       *string   `yaml:"cnonce"`
		Cnf          yaml.Node `yaml:"cnf"`
		SdHash       *string   `yaml:"sd_hash"`
		SdAlg        *string   `yaml:"sd_alg"`
		RedactedKeys []string  `yaml:"redacted_keys"`
		Custom       yaml.Node `yaml:"custom"`
	} `yaml:"payload"`
	Signature string `yaml:"signature"`
}

// parseView builds a token from its JSON view. Comments are allowed.
// The result encodes in shortest form.
func parseView(data []byte) (*sdcwt.SdCwt, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	decoder.KnownFields(true)
	var doc viewDocument
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty token view")
		}
		return nil, err
	}

	if doc.Protected.Alg == "" {
		return nil, fmt.Errorf("protected.alg is required")
	}
	alg, err := sdcwt.ParseInt(doc.Protected.Alg)
	if err != nil {
		return nil, fmt.Errorf("protected.alg: %w", err)
	}
	protected := sdcwt.NewSdProtected(alg, doc.Protected.Typ)
	if protected.Custom, err = parseMap("protected.custom", &doc.Protected.Custom); err != nil {
		return nil, err
	}

	unprotected := sdcwt.NewUnprotected()
	if doc.Unprotected.SdClaims != nil {
		unprotected.SdClaims = []sdcwt.Salted{}
		for position, claim := range *doc.Unprotected.SdClaims {
			disclosure, err := parseDisclosure(claim.Salt, &claim.Index, &claim.Value)
			if err != nil {
				return nil, fmt.Errorf("unprotected.sd_claims[%d]: %w", position, err)
			}
			unprotected.SdClaims = append(unprotected.SdClaims, disclosure)
		}
	}
	if unprotected.SdKbt, err = parseOptionalHex("unprotected.sd_kbt", doc.Unprotected.SdKbt); err != nil {
		return nil, err
	}
	if unprotected.Custom, err = parseMap("unprotected.custom", &doc.Unprotected.Custom); err != nil {
		return nil, err
	}

	source := &doc.Payload
	if source.Iat == "" {
		return nil, fmt.Errorf("payload.iat is required")
	}
	iat, err := sdcwt.ParseInt(source.Iat)
	if err != nil {
		return nil, fmt.Errorf("payload.iat: %w", err)
	}
	payload := sdcwt.NewSdPayload(source.Aud, iat)
	payload.Iss, payload.Sub = source.Iss, source.Sub
	if payload.Exp, err = parseOptionalInt("payload.exp", source.Exp); err != nil {
		return nil, err
	}
	if payload.Nbf, err = parseOptionalInt("payload.nbf", source.Nbf); err != nil {
		return nil, err
	}
	if payload.SdAlg, err = parseOptionalInt("payload.sd_alg", source.SdAlg); err != nil {
		return nil, err
	}
	if payload.Cnonce, err = parseOptionalHex("payload.cnonce", source.Cnonce); err != nil {
		return nil, err
	}
	if payload.SdHash, err = parseOptionalHex("payload.sd_hash", source.SdHash); err != nil {
		return nil, err
	}
	if !isAbsent(&source.Cnf) {
		if payload.Cnf, err = parseMap("payload.cnf", &source.Cnf); err != nil {
			return nil, err
		}
	}
	for position, digest := range source.RedactedKeys {
		decoded, err := hex.DecodeString(digest)
		if err != nil {
			return nil, fmt.Errorf("payload.redacted_keys[%d]: %w", position, err)
		}
		payload.RedactedKeys = append(payload.RedactedKeys, decoded)
	}
	if payload.Custom, err = parseMap("payload.custom", &source.Custom); err != nil {
		return nil, err
	}

	token := sdcwt.New(protected, unprotected, payload)
	if token.Signature, err = hex.DecodeString(doc.Signature); err != nil {
		return nil, fmt.Errorf("signature: %w", err)
	}
	return token, nil
}

func parseDisclosure(saltHex string, indexNode, valueNode *yaml.Node) (sdcwt.Salted, error) {
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return sdcwt.Salted{}, fmt.Errorf("salt: %w", err)
	}
	if valueNode.Kind == 0 {
		return sdcwt.Salted{}, fmt.Errorf("value is required")
	}
	value, err := claimset.ValueFromNode(valueNode)
	if err != nil {
		return sdcwt.Salted{}, fmt.Errorf("value: %w", err)
	}
	if isAbsent(indexNode) {
		item, err := sdcwt.NewSaltedElementItem(salt, value)
		if err != nil {
			return sdcwt.Salted{}, err
		}
		return sdcwt.NewSaltedElement(item), nil
	}
	index, err := claimset.IndexFromNode(indexNode, false)
	if err != nil {
		return sdcwt.Salted{}, fmt.Errorf("index: %w", err)
	}
	item, err := sdcwt.NewSaltedClaimItem(salt, index, value)
	if err != nil {
		return sdcwt.Salted{}, err
	}
	return sdcwt.NewSaltedClaim(item), nil
}

// parseMap converts an object node to an extension map. An absent
// node yields an empty map.
func parseMap(section string, node *yaml.Node) (*sdcwt.OrderedMap, error) {
	if isAbsent(node) {
		return sdcwt.NewOrderedMap(), nil
	}
	return claimset.MapFromNode(section, node, true)
}

func parseOptionalInt(name string, text *string) (*sdcwt.Int, error) {
	if text == nil {
		return nil, nil
	}
	value, err := sdcwt.ParseInt(*text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &value, nil
}

func parseOptionalHex(name string, text *string) ([]byte, error) {
	if text == nil {
		return nil, nil
	}
	decoded, err := hex.DecodeString(*text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return decoded, nil
}

func isAbsent(node *yaml.Node) bool {
	return node.Kind == 0 || (node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null")
}

