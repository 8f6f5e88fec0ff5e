package wms

import "encoding/xml"

// XML namespaces used by WMS 1.3.0 capabilities documents.
const (
	Namespace      = "http://www.opengis.net/wms"
	XLinkNamespace = "http://www.w3.org/1999/xlink"
)

// Version is the WMS protocol version requested and modelled by this package.
const Version = "1.3.0"

// Capabilities is the root WMS_Capabilities element.
type Capabilities struct {
	XMLName        xml.Name   `xml:"WMS_Capabilities" json:"-"`
	Version        string     `xml:"version,attr" json:"version,omitempty"`
	UpdateSequence string     `xml:"updateSequence,attr" json:"updateSequence,omitempty"`
	Service        Service    `xml:"Service" json:"service"`
	Capability     Capability `xml:"Capability" json:"capability"`
}

// Service holds the general service metadata.
type Service struct {
	Name               string              `xml:"Name" json:"name"`
	Title              string              `xml:"Title" json:"title"`
	Abstract           string              `xml:"Abstract" json:"_abstract,omitempty"`
	KeywordList        *KeywordList        `xml:"KeywordList" json:"keywordList,omitempty"`
	OnlineResource     *OnlineResource     `xml:"OnlineResource" json:"onlineResource,omitempty"`
	ContactInformation *ContactInformation `xml:"ContactInformation" json:"contactInformation,omitempty"`
	Fees               string              `xml:"Fees" json:"fees,omitempty"`
	AccessConstraints  string              `xml:"AccessConstraints" json:"accessConstraints,omitempty"`
	LayerLimit         int                 `xml:"LayerLimit" json:"layerLimit,omitempty"`
	MaxWidth           int                 `xml:"MaxWidth" json:"maxWidth,omitempty"`
	MaxHeight          int                 `xml:"MaxHeight" json:"maxHeight,omitempty"`
}

type KeywordList struct {
	Keyword []Keyword `xml:"Keyword" json:"keyword,omitempty"`
}

type Keyword struct {
	Vocabulary string `xml:"vocabulary,attr" json:"vocabulary,omitempty"`
	Value      string `xml:",chardata" json:"value"`
}

// OnlineResource is an XLink reference; Href carries the URL.
type OnlineResource struct {
	Type string `xml:"http://www.w3.org/1999/xlink type,attr" json:"type,omitempty"`
	Href string `xml:"http://www.w3.org/1999/xlink href,attr" json:"href,omitempty"`
}

type ContactInformation struct {
	ContactPersonPrimary         *ContactPersonPrimary `xml:"ContactPersonPrimary" json:"contactPersonPrimary,omitempty"`
	ContactPosition              string                `xml:"ContactPosition" json:"contactPosition,omitempty"`
	ContactAddress               *ContactAddress       `xml:"ContactAddress" json:"contactAddress,omitempty"`
	ContactVoiceTelephone        string                `xml:"ContactVoiceTelephone" json:"contactVoiceTelephone,omitempty"`
	ContactFacsimileTelephone    string                `xml:"ContactFacsimileTelephone" json:"contactFacsimileTelephone,omitempty"`
	ContactElectronicMailAddress string                `xml:"ContactElectronicMailAddress" json:"contactElectronicMailAddress,omitempty"`
}

type ContactPersonPrimary struct {
	ContactPerson       string `xml:"ContactPerson" json:"contactPerson"`
	ContactOrganization string `xml:"ContactOrganization" json:"contactOrganization"`
}

type ContactAddress struct {
	AddressType     string `xml:"AddressType" json:"addressType"`
	Address         string `xml:"Address" json:"address"`
	City            string `xml:"City" json:"city"`
	StateOrProvince string `xml:"StateOrProvince" json:"stateOrProvince"`
	PostCode        string `xml:"PostCode" json:"postCode"`
	Country         string `xml:"Country" json:"country"`
}

// Capability lists the supported operations and the root layer.
type Capability struct {
	Request   *Request   `xml:"Request" json:"request,omitempty"`
	Exception *Exception `xml:"Exception" json:"exception,omitempty"`
	Layer     *Layer     `xml:"Layer" json:"layer,omitempty"`
}

type Request struct {
	GetCapabilities *OperationType `xml:"GetCapabilities" json:"getCapabilities,omitempty"`
	GetMap          *OperationType `xml:"GetMap" json:"getMap,omitempty"`
	GetFeatureInfo  *OperationType `xml:"GetFeatureInfo" json:"getFeatureInfo,omitempty"`
}

type OperationType struct {
	Format  []string  `xml:"Format" json:"format,omitempty"`
	DCPType []DCPType `xml:"DCPType" json:"dcpType,omitempty"`
}

type DCPType struct {
	HTTP HTTP `xml:"HTTP" json:"http"`
}

type HTTP struct {
	Get  *Method `xml:"Get" json:"get,omitempty"`
	Post *Method `xml:"Post" json:"post,omitempty"`
}

type Method struct {
	OnlineResource OnlineResource `xml:"OnlineResource" json:"onlineResource"`
}

type Exception struct {
	Format []string `xml:"Format" json:"format,omitempty"`
}

// Layer is a (possibly nested) map layer. Child layers inherit properties
// from their parent per the WMS specification; this type stores only what
// the document declares at each level.
type Layer struct {
	Queryable   bool `xml:"queryable,attr" json:"queryable,omitempty"`
	Cascaded    int  `xml:"cascaded,attr" json:"cascaded,omitempty"`
	Opaque      bool `xml:"opaque,attr" json:"opaque,omitempty"`
	NoSubsets   bool `xml:"noSubsets,attr" json:"noSubsets,omitempty"`
	FixedWidth  int  `xml:"fixedWidth,attr" json:"fixedWidth,omitempty"`
	FixedHeight int  `xml:"fixedHeight,attr" json:"fixedHeight,omitempty"`

	Name                  string                 `xml:"Name" json:"name,omitempty"`
	Title                 string                 `xml:"Title" json:"title"`
	Abstract              string                 `xml:"Abstract" json:"_abstract,omitempty"`
	KeywordList           *KeywordList           `xml:"KeywordList" json:"keywordList,omitempty"`
	CRS                   []string               `xml:"CRS" json:"crs,omitempty"`
	GeographicBoundingBox *GeographicBoundingBox `xml:"EX_GeographicBoundingBox" json:"exGeographicBoundingBox,omitempty"`
	BoundingBox           []BoundingBox          `xml:"BoundingBox" json:"boundingBox,omitempty"`
	Dimension             []Dimension            `xml:"Dimension" json:"dimension,omitempty"`
	Attribution           *Attribution           `xml:"Attribution" json:"attribution,omitempty"`
	AuthorityURL          []AuthorityURL         `xml:"AuthorityURL" json:"authorityURL,omitempty"`
	Identifier            []Identifier           `xml:"Identifier" json:"identifier,omitempty"`
	MetadataURL           []MetadataURL          `xml:"MetadataURL" json:"metadataURL,omitempty"`
	DataURL               []FormatURL            `xml:"DataURL" json:"dataURL,omitempty"`
	FeatureListURL        []FormatURL            `xml:"FeatureListURL" json:"featureListURL,omitempty"`
	Style                 []Style                `xml:"Style" json:"style,omitempty"`
	MinScaleDenominator   *float64               `xml:"MinScaleDenominator" json:"minScaleDenominator,omitempty"`
	MaxScaleDenominator   *float64               `xml:"MaxScaleDenominator" json:"maxScaleDenominator,omitempty"`
	Layer                 []Layer                `xml:"Layer" json:"layer,omitempty"`
}

type GeographicBoundingBox struct {
	WestBoundLongitude float64 `xml:"westBoundLongitude" json:"westBoundLongitude"`
	EastBoundLongitude float64 `xml:"eastBoundLongitude" json:"eastBoundLongitude"`
	SouthBoundLatitude float64 `xml:"southBoundLatitude" json:"southBoundLatitude"`
	NorthBoundLatitude float64 `xml:"northBoundLatitude" json:"northBoundLatitude"`
}

type BoundingBox struct {
	CRS  string   `xml:"CRS,attr" json:"crs"`
	MinX float64  `xml:"minx,attr" json:"minx"`
	MinY float64  `xml:"miny,attr" json:"miny"`
	MaxX float64  `xml:"maxx,attr" json:"maxx"`
	MaxY float64  `xml:"maxy,attr" json:"maxy"`
	ResX *float64 `xml:"resx,attr" json:"resx,omitempty"`
	ResY *float64 `xml:"resy,attr" json:"resy,omitempty"`
}

// Dimension describes a layer dimension such as time or elevation. Value is
// the element's character content: a comma-separated list of values or
// min/max/resolution intervals.
type Dimension struct {
	Name           string `xml:"name,attr" json:"name"`
	Units          string `xml:"units,attr" json:"units"`
	UnitSymbol     string `xml:"unitSymbol,attr" json:"unitSymbol,omitempty"`
	Default        string `xml:"default,attr" json:"_default,omitempty"`
	MultipleValues bool   `xml:"multipleValues,attr" json:"multipleValues,omitempty"`
	NearestValue   bool   `xml:"nearestValue,attr" json:"nearestValue,omitempty"`
	Current        bool   `xml:"current,attr" json:"current,omitempty"`
	Value          string `xml:",chardata" json:"value"`
}

type Attribution struct {
	Title          string          `xml:"Title" json:"title,omitempty"`
	OnlineResource *OnlineResource `xml:"OnlineResource" json:"onlineResource,omitempty"`
	LogoURL        *LogoURL        `xml:"LogoURL" json:"logoURL,omitempty"`
}

// LogoURL is used for attribution logos and style legends.
type LogoURL struct {
	Width          int            `xml:"width,attr" json:"width,omitempty"`
	Height         int            `xml:"height,attr" json:"height,omitempty"`
	Format         string         `xml:"Format" json:"format"`
	OnlineResource OnlineResource `xml:"OnlineResource" json:"onlineResource"`
}

type AuthorityURL struct {
	Name           string         `xml:"name,attr" json:"name"`
	OnlineResource OnlineResource `xml:"OnlineResource" json:"onlineResource"`
}

type Identifier struct {
	Authority string `xml:"authority,attr" json:"authority"`
	Value     string `xml:",chardata" json:"value"`
}

type MetadataURL struct {
	Type           string         `xml:"type,attr" json:"type"`
	Format         string         `xml:"Format" json:"format"`
	OnlineResource OnlineResource `xml:"OnlineResource" json:"onlineResource"`
}

// FormatURL is the shared shape of DataURL, FeatureListURL, StyleSheetURL
// and StyleURL.
type FormatURL struct {
	Format         string         `xml:"Format" json:"format"`
	OnlineResource OnlineResource `xml:"OnlineResource" json:"onlineResource"`
}

type Style struct {
	Name          string     `xml:"Name" json:"name"`
	Title         string     `xml:"Title" json:"title"`
	Abstract      string     `xml:"Abstract" json:"_abstract,omitempty"`
	LegendURL     []LogoURL  `xml:"LegendURL" json:"legendURL,omitempty"`
	StyleSheetURL *FormatURL `xml:"StyleSheetURL" json:"styleSheetURL,omitempty"`
	StyleURL      *FormatURL `xml:"StyleURL" json:"styleURL,omitempty"`
}

// exceptionReport is the OGC ServiceExceptionReport returned instead of a
// capabilities document when a request fails on the server side.
type exceptionReport struct {
	Version    string             `xml:"version,attr"`
	Exceptions []serviceException `xml:"ServiceException"`
}

type serviceException struct {
	Code    string `xml:"code,attr"`
	Locator string `xml:"locator,attr"`
	Message string `xml:",chardata"`
}
