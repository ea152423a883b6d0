package hbase_store

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Client properties understood by ApplyProperties. Durations are in milliseconds as in hbase-site.xml, or in
// Go's duration syntax ("30s").
const (
	PropZookeeperQuorum      = "hbase.zookeeper.quorum"
	PropZookeeperRoot        = "zookeeper.znode.parent"
	PropZookeeperTimeout     = "zookeeper.session.timeout"
	PropRPCTimeout           = "hbase.rpc.timeout"
	PropScannerCaching       = "hbase.client.scanner.caching"
	PropScannerMaxResultSize = "hbase.client.scanner.max.result.size"
)

// ApplyProperties overrides the options with the HBase client properties it knows about. The keys it does not
// apply are returned sorted.
func (opts *Options) ApplyProperties(props map[string]string) (ignored []string, err error) {
	if len(props) == 0 {
		return nil, nil
	}
	updated := *opts
	var metadata mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &updated,
		Metadata:         &metadata,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.DecodeHookFuncType(millisToDurationHook),
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(props); err != nil {
		return nil, fmt.Errorf("invalid client properties: %w", err)
	}
	if updated.RPCTimeout < 0 || updated.ZookeeperTimeout < 0 {
		return nil, fmt.Errorf("invalid client properties: %s and %s must not be negative", PropRPCTimeout,
			PropZookeeperTimeout)
	}
	if _, ok := props[PropScannerCaching]; ok && updated.ScannerCaching <= 0 {
		return nil, fmt.Errorf("invalid client properties: %s must be positive", PropScannerCaching)
	}
	*opts = updated
	ignored = metadata.Unused
	sort.Strings(ignored)
	return ignored, nil
}

// millisToDurationHook reads a bare number as milliseconds and anything else with time.ParseDuration.
func millisToDurationHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}
	value := data.(string)
	if millis, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Duration(millis) * time.Millisecond, nil
	}
	return time.ParseDuration(value)
}
