// Package fortios is the runtime imported by generated modules.
//
// Each generated file registers a Module describing one CMDB endpoint: its
// documentation, the versioned schema it was generated from and the attribute
// rewrites applied at generation time. A Handler turns module requests into
// CMDB calls over a caller-supplied Sender; falcon itself ships no transport.
//
// Basic usage:
//
//	m, ok := fortios.Lookup("fortios_firewall_policy")
//	result, err := m.Check(params, "v7.0.0")
//	outcome, err := m.Apply(ctx, fortios.NewHandler(sender), params, fortios.ApplyOptions{State: "present"})
package fortios
