// GRPCExtensionHandle wires COMPATIBILITY_LAYER / ADDON_CALL dispatch to a
// remote extension implemented as a gRPC service, dynamically, using
// protoreflect so the compiler never needs the service's generated stubs at
// build time. Grounded on the teacher's grpcConnect/grpcInvoke builtins
// (internal/evaluator/builtins_grpc.go), adapted from a general-purpose
// scripting builtin (blocking on an explicit GrpcConn argument, method name,
// and JSON payload string) to the fixed {opcode, args map} shape an
// extension block call carries (spec §4.7 "ext_scratch3_* extension
// handles").
package hostbridge

import (
	"context"
	"fmt"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/dynamic"
	"github.com/jhump/protoreflect/dynamic/grpcdynamic"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// GRPCExtensionHandle implements ExtensionHandle by invoking a fixed gRPC
// method per opcode, marshalling the opcode's input/field map as a
// google.protobuf.Struct (spec's "inputs/fields supplied as an object
// literal" for COMPATIBILITY_LAYER, reinterpreted here as the wire payload
// for an out-of-process extension rather than an in-process object
// literal).
type GRPCExtensionHandle struct {
	Conn    *grpc.ClientConn
	Stub    grpcdynamic.Stub
	Methods map[string]*desc.MethodDescriptor // opcode name -> RPC method
}

// NewGRPCExtensionHandle builds a handle from an established connection and
// the method descriptors a loaded .proto service exposes (spec's
// ext_scratch3_* extension registration), keyed by the opcode name the IR's
// COMPATIBILITY_LAYER/ADDON_CALL nodes carry in Field["op"].
func NewGRPCExtensionHandle(conn *grpc.ClientConn, methods map[string]*desc.MethodDescriptor) *GRPCExtensionHandle {
	return &GRPCExtensionHandle{
		Conn:    conn,
		Stub:    grpcdynamic.NewStub(conn),
		Methods: methods,
	}
}

// Call implements ExtensionHandle: looks up opcode's method descriptor,
// marshals args into the request message via a Struct-shaped field (any
// extension proto this bridges to is expected to declare a single
// `google.protobuf.Struct args` field, the dynamic equivalent of the
// object-literal call the in-process spec describes), invokes it, and
// unmarshals the response's `result` field back to a Go value.
func (h *GRPCExtensionHandle) Call(ctx context.Context, opcode string, args map[string]interface{}) (interface{}, error) {
	method, ok := h.Methods[opcode]
	if !ok {
		return nil, fmt.Errorf("hostbridge: no gRPC method registered for opcode %q", opcode)
	}

	argStruct, err := structpb.NewStruct(args)
	if err != nil {
		return nil, fmt.Errorf("hostbridge: marshalling args for %q: %w", opcode, err)
	}

	req := dynamic.NewMessage(method.GetInputType())
	if err := req.TrySetFieldByName("args", argStruct); err != nil {
		return nil, fmt.Errorf("hostbridge: binding args field for %q: %w", opcode, err)
	}

	resp, err := h.Stub.InvokeRpc(ctx, method, req)
	if err != nil {
		return nil, fmt.Errorf("hostbridge: invoking %q: %w", opcode, err)
	}

	dynResp, ok := resp.(*dynamic.Message)
	if !ok {
		return nil, fmt.Errorf("hostbridge: unexpected response type for %q", opcode)
	}
	result, err := dynResp.TryGetFieldByName("result")
	if err != nil {
		return nil, fmt.Errorf("hostbridge: reading result field for %q: %w", opcode, err)
	}
	return result, nil
}
