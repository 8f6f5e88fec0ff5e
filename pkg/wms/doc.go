// Package wms models OGC Web Map Service 1.3.0 GetCapabilities documents.
//
// # Parsing
//
// [Parse] and [ParseReader] decode a capabilities XML document into a
// [Capabilities] value. Decoding is namespace-aware for the WMS namespace
// ([Namespace]) and XLink attributes ([XLinkNamespace]); extension elements
// from SLD, SE, OWS, GML, SMIL or Filter schemas are tolerated and skipped.
// Documents in legacy encodings such as ISO-8859-1 are transcoded to UTF-8.
//
// Services answering with a ServiceExceptionReport instead of a capabilities
// document produce an error carrying the exception messages.
//
// # JSON Form
//
// [Capabilities.JSON] renders the document with lower-camel property names
// under a "WMS_Capabilities" root key, so the first nested layer's first
// dimension value lives at:
//
//	WMS_Capabilities.capability.layer.layer[0].dimension[0].value
//
// # Dimensions
//
// [Dimensions] reads the time dimension of the first nested layer:
//
//	caps, err := wms.Parse(xmlText)
//	if err != nil {
//	    return err
//	}
//	times, err := wms.Dimensions(caps)
//	if errors.Is(err, wms.ErrNoDimension) {
//	    // first layer is not time-enabled
//	}
//
// Values are parsed as local date-times; a trailing "Z" zone designator is
// ignored.
package wms
