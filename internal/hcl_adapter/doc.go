// Package hcl_adapter reads the kernel configuration from HCL files into the
// format-agnostic config.Model.
//
// Every attribute is optional. Attributes are decoded as raw expressions so
// that an explicit `cleanup_on_abort = false` can be told apart from an
// omitted one; only attributes actually present in the file override the
// defaults.
package hcl_adapter
