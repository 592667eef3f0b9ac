package control

import (
	"github.com/dspforge/rtengine/pkg/processor"
	"github.com/dspforge/rtengine/pkg/procwrap"
)

// newWrapperPlugin builds an unattached procwrap.Wrapper for a native
// plugin protocol. path is recorded on the wrapper only as metadata
// (NativePath) for an out-of-tree loader to consult later; dlopen'ing
// path and producing a procwrap.NativePlugin is outside this package's
// scope (§1 Non-goals).
func newWrapperPlugin(name string, kind PluginType, path string) (processor.Processor, error) {
	proto, err := protocolFor(kind)
	if err != nil {
		return nil, err
	}
	w := procwrap.New(0, name, proto)
	w.NativePath = path
	return w, nil
}

func protocolFor(kind PluginType) (procwrap.Protocol, error) {
	switch kind {
	case PluginVST2:
		return procwrap.ProtocolVST2, nil
	case PluginVST3:
		return procwrap.ProtocolVST3, nil
	case PluginLV2:
		return procwrap.ProtocolLV2, nil
	default:
		return 0, newStatusError(InvalidPluginUID, "unsupported native plugin protocol %d", int(kind))
	}
}
