// File: confcore/decode.go
package confcore

import (
	"fmt"
	"net"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// structTag is the tag name mapstructure consults when decoding into a
// struct via Unmarshal/UnmarshalSubtree.
const structTag = "config"

// decodeHook is the composite mapstructure hook used by every
// Unmarshal call: the same stdlib hooks the teacher wired up, plus the
// network/URL hooks it hand-wrote, ported to the go-viper fork.
func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		stringToNetIPHookFunc(),
		stringToNetIPNetHookFunc(),
		stringToURLHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToTimeHookFunc(time.RFC3339),
		mapstructure.StringToSliceHookFunc(","),
	)
}

func stringToNetIPHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(net.IP{}) {
			return data, nil
		}
		str := data.(string)
		ip := net.ParseIP(str)
		if ip == nil {
			return nil, fmt.Errorf("invalid IP address: %s", str)
		}
		return ip, nil
	}
}

func stringToNetIPNetHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		isPtr := t.Kind() == reflect.Ptr
		target := t
		if isPtr {
			target = t.Elem()
		}
		if target != reflect.TypeOf(net.IPNet{}) {
			return data, nil
		}
		_, ipnet, err := net.ParseCIDR(data.(string))
		if err != nil {
			return nil, fmt.Errorf("invalid CIDR: %w", err)
		}
		if isPtr {
			return ipnet, nil
		}
		return *ipnet, nil
	}
}

func stringToURLHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		isPtr := t.Kind() == reflect.Ptr
		target := t
		if isPtr {
			target = t.Elem()
		}
		if target != reflect.TypeOf(url.URL{}) {
			return data, nil
		}
		u, err := url.Parse(data.(string))
		if err != nil {
			return nil, fmt.Errorf("invalid URL: %w", err)
		}
		if isPtr {
			return u, nil
		}
		return *u, nil
	}
}

// navigateToPath walks a nested map[string]any built by setNestedValue
// down to basePath, returning nil if any segment is missing or not a
// table.
func navigateToPath(nested map[string]any, basePath string) any {
	basePath = strings.TrimSuffix(basePath, ".")
	if basePath == "" {
		return nested
	}

	var current any = nested
	for _, segment := range strings.Split(basePath, ".") {
		currentMap, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		value, exists := currentMap[segment]
		if !exists {
			return nil
		}
		current = value
	}
	return current
}

func newDecoder(target any) (*mapstructure.Decoder, error) {
	return mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          structTag,
		WeaklyTypedInput: true,
		DecodeHook:       decodeHook(),
	})
}
