// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package exifedit

// TagType is an EXIF field type.
type TagType uint16

const (
	TypeByte      TagType = 1
	TypeASCII     TagType = 2
	TypeShort     TagType = 3
	TypeLong      TagType = 4
	TypeRational  TagType = 5
	TypeSByte     TagType = 6
	TypeUndefined TagType = 7
	TypeSShort    TagType = 8
	TypeSLong     TagType = 9
	TypeSRational TagType = 10
	TypeFloat     TagType = 11
	TypeDouble    TagType = 12
)

// Size in bytes of each type.
var tagTypeSize = map[TagType]uint32{
	TypeByte:      1,
	TypeASCII:     1,
	TypeShort:     2,
	TypeLong:      4,
	TypeRational:  8,
	TypeSByte:     1,
	TypeUndefined: 1,
	TypeSShort:    2,
	TypeSLong:     4,
	TypeSRational: 8,
	TypeFloat:     4,
	TypeDouble:    8,
}

var tagTypeNames = map[TagType]string{
	TypeByte:      "BYTE",
	TypeASCII:     "ASCII",
	TypeShort:     "SHORT",
	TypeLong:      "LONG",
	TypeRational:  "RATIONAL",
	TypeSByte:     "SBYTE",
	TypeUndefined: "UNDEFINED",
	TypeSShort:    "SSHORT",
	TypeSLong:     "SLONG",
	TypeSRational: "SRATIONAL",
	TypeFloat:     "FLOAT",
	TypeDouble:    "DOUBLE",
}

func (t TagType) String() string {
	if s, ok := tagTypeNames[t]; ok {
		return s
	}
	return "TagType(" + itoa(int64(t)) + ")"
}

// IsRational reports whether t is RATIONAL or SRATIONAL.
func (t TagType) IsRational() bool {
	return t == TypeRational || t == TypeSRational
}

// IsInteger reports whether values of t are integers.
func (t TagType) IsInteger() bool {
	switch t {
	case TypeByte, TypeShort, TypeLong, TypeSByte, TypeSShort, TypeSLong:
		return true
	}
	return false
}

// IsFloat reports whether values of t are decoded as float64.
func (t TagType) IsFloat() bool {
	return t.IsRational() || t == TypeFloat || t == TypeDouble
}

type tagEntry struct {
	name       string
	code       uint16
	typ        TagType
	structural bool
}

// Tags valid in both IFD0 and IFD1.
var tiffTags = []tagEntry{
	{"ProcessingSoftware", 0x000b, TypeASCII, false},
	{"NewSubfileType", 0x00fe, TypeLong, false},
	{"SubfileType", 0x00ff, TypeShort, false},
	{"ImageWidth", 0x0100, TypeLong, false},
	{"ImageLength", 0x0101, TypeLong, false},
	{"BitsPerSample", 0x0102, TypeShort, false},
	{"Compression", 0x0103, TypeShort, false},
	{"PhotometricInterpretation", 0x0106, TypeShort, false},
	{"Threshholding", 0x0107, TypeShort, false},
	{"CellWidth", 0x0108, TypeShort, false},
	{"CellLength", 0x0109, TypeShort, false},
	{"FillOrder", 0x010a, TypeShort, false},
	{"DocumentName", 0x010d, TypeASCII, false},
	{"ImageDescription", 0x010e, TypeASCII, false},
	{"Make", 0x010f, TypeASCII, false},
	{"Model", 0x0110, TypeASCII, false},
	{"StripOffsets", 0x0111, TypeLong, true},
	{"Orientation", 0x0112, TypeShort, false},
	{"SamplesPerPixel", 0x0115, TypeShort, false},
	{"RowsPerStrip", 0x0116, TypeLong, false},
	{"StripByteCounts", 0x0117, TypeLong, true},
	{"XResolution", 0x011a, TypeRational, false},
	{"YResolution", 0x011b, TypeRational, false},
	{"PlanarConfiguration", 0x011c, TypeShort, false},
	{"GrayResponseUnit", 0x0122, TypeShort, false},
	{"GrayResponseCurve", 0x0123, TypeShort, false},
	{"T4Options", 0x0124, TypeLong, false},
	{"T6Options", 0x0125, TypeLong, false},
	{"ResolutionUnit", 0x0128, TypeShort, false},
	{"TransferFunction", 0x012d, TypeShort, false},
	{"Software", 0x0131, TypeASCII, false},
	{"DateTime", 0x0132, TypeASCII, false},
	{"Artist", 0x013b, TypeASCII, false},
	{"HostComputer", 0x013c, TypeASCII, false},
	{"Predictor", 0x013d, TypeShort, false},
	{"WhitePoint", 0x013e, TypeRational, false},
	{"PrimaryChromaticities", 0x013f, TypeRational, false},
	{"ColorMap", 0x0140, TypeShort, false},
	{"HalftoneHints", 0x0141, TypeShort, false},
	{"TileWidth", 0x0142, TypeShort, false},
	{"TileLength", 0x0143, TypeShort, false},
	{"TileOffsets", 0x0144, TypeShort, true},
	{"TileByteCounts", 0x0145, TypeShort, true},
	{"SubIFDs", 0x014a, TypeLong, true},
	{"InkSet", 0x014c, TypeShort, false},
	{"InkNames", 0x014d, TypeASCII, false},
	{"NumberOfInks", 0x014e, TypeShort, false},
	{"DotRange", 0x0150, TypeByte, false},
	{"TargetPrinter", 0x0151, TypeASCII, false},
	{"ExtraSamples", 0x0152, TypeShort, false},
	{"SampleFormat", 0x0153, TypeShort, false},
	{"SMinSampleValue", 0x0154, TypeShort, false},
	{"SMaxSampleValue", 0x0155, TypeShort, false},
	{"TransferRange", 0x0156, TypeShort, false},
	{"ClipPath", 0x0157, TypeByte, false},
	{"XClipPathUnits", 0x0158, TypeLong, false},
	{"YClipPathUnits", 0x0159, TypeLong, false},
	{"Indexed", 0x015a, TypeShort, false},
	{"JPEGTables", 0x015b, TypeUndefined, false},
	{"OPIProxy", 0x015f, TypeShort, false},
	{"JPEGProc", 0x0200, TypeLong, false},
	{"JPEGInterchangeFormat", 0x0201, TypeLong, true},
	{"JPEGInterchangeFormatLength", 0x0202, TypeLong, true},
	{"JPEGRestartInterval", 0x0203, TypeShort, false},
	{"JPEGLosslessPredictors", 0x0205, TypeShort, false},
	{"JPEGPointTransforms", 0x0206, TypeShort, false},
	{"JPEGQTables", 0x0207, TypeLong, false},
	{"JPEGDCTables", 0x0208, TypeLong, false},
	{"JPEGACTables", 0x0209, TypeLong, false},
	{"YCbCrCoefficients", 0x0211, TypeRational, false},
	{"YCbCrSubSampling", 0x0212, TypeShort, false},
	{"YCbCrPositioning", 0x0213, TypeShort, false},
	{"ReferenceBlackWhite", 0x0214, TypeRational, false},
	{"XMLPacket", 0x02bc, TypeByte, false},
	{"Rating", 0x4746, TypeShort, false},
	{"RatingPercent", 0x4749, TypeShort, false},
	{"ImageID", 0x800d, TypeASCII, false},
	{"CFARepeatPatternDim", 0x828d, TypeShort, false},
	{"CFAPattern2", 0x828e, TypeByte, false},
	{"BatteryLevel", 0x828f, TypeRational, false},
	{"Copyright", 0x8298, TypeASCII, false},
	{"IPTCNAA", 0x83bb, TypeLong, false},
	{"ImageResources", 0x8649, TypeByte, false},
	{"ExifTag", 0x8769, TypeLong, true},
	{"InterColorProfile", 0x8773, TypeUndefined, false},
	{"GPSTag", 0x8825, TypeLong, true},
	{"Interlace", 0x8829, TypeShort, false},
	{"TimeZoneOffset", 0x882a, TypeSShort, false},
	{"SelfTimerMode", 0x882b, TypeShort, false},
	{"XPTitle", 0x9c9b, TypeByte, false},
	{"XPComment", 0x9c9c, TypeByte, false},
	{"XPAuthor", 0x9c9d, TypeByte, false},
	{"XPKeywords", 0x9c9e, TypeByte, false},
	{"XPSubject", 0x9c9f, TypeByte, false},
	{"PrintImageMatching", 0xc4a5, TypeUndefined, false},
	{"DNGVersion", 0xc612, TypeByte, false},
	{"DNGBackwardVersion", 0xc613, TypeByte, false},
	{"UniqueCameraModel", 0xc614, TypeASCII, false},
	{"LocalizedCameraModel", 0xc615, TypeByte, false},
	{"ColorMatrix1", 0xc621, TypeSRational, false},
	{"ColorMatrix2", 0xc622, TypeSRational, false},
	{"CameraCalibration1", 0xc623, TypeSRational, false},
	{"CameraCalibration2", 0xc624, TypeSRational, false},
	{"AnalogBalance", 0xc627, TypeRational, false},
	{"AsShotNeutral", 0xc628, TypeRational, false},
	{"BaselineExposure", 0xc62a, TypeSRational, false},
	{"BaselineNoise", 0xc62b, TypeRational, false},
	{"BaselineSharpness", 0xc62c, TypeRational, false},
	{"CameraSerialNumber", 0xc62f, TypeASCII, false},
	{"LensInfo", 0xc630, TypeRational, false},
	{"CalibrationIlluminant1", 0xc65a, TypeShort, false},
	{"CalibrationIlluminant2", 0xc65b, TypeShort, false},
	{"OriginalRawFileName", 0xc68b, TypeByte, false},
}

var exifTags = []tagEntry{
	{"ExposureTime", 0x829a, TypeRational, false},
	{"FNumber", 0x829d, TypeRational, false},
	{"ExposureProgram", 0x8822, TypeShort, false},
	{"SpectralSensitivity", 0x8824, TypeASCII, false},
	{"ISOSpeedRatings", 0x8827, TypeShort, false},
	{"OECF", 0x8828, TypeUndefined, false},
	{"SensitivityType", 0x8830, TypeShort, false},
	{"StandardOutputSensitivity", 0x8831, TypeLong, false},
	{"RecommendedExposureIndex", 0x8832, TypeLong, false},
	{"ISOSpeed", 0x8833, TypeLong, false},
	{"ISOSpeedLatitudeyyy", 0x8834, TypeLong, false},
	{"ISOSpeedLatitudezzz", 0x8835, TypeLong, false},
	{"ExifVersion", 0x9000, TypeUndefined, false},
	{"DateTimeOriginal", 0x9003, TypeASCII, false},
	{"DateTimeDigitized", 0x9004, TypeASCII, false},
	{"OffsetTime", 0x9010, TypeASCII, false},
	{"OffsetTimeOriginal", 0x9011, TypeASCII, false},
	{"OffsetTimeDigitized", 0x9012, TypeASCII, false},
	{"ComponentsConfiguration", 0x9101, TypeUndefined, false},
	{"CompressedBitsPerPixel", 0x9102, TypeRational, false},
	{"ShutterSpeedValue", 0x9201, TypeSRational, false},
	{"ApertureValue", 0x9202, TypeRational, false},
	{"BrightnessValue", 0x9203, TypeSRational, false},
	{"ExposureBiasValue", 0x9204, TypeSRational, false},
	{"MaxApertureValue", 0x9205, TypeRational, false},
	{"SubjectDistance", 0x9206, TypeRational, false},
	{"MeteringMode", 0x9207, TypeShort, false},
	{"LightSource", 0x9208, TypeShort, false},
	{"Flash", 0x9209, TypeShort, false},
	{"FocalLength", 0x920a, TypeRational, false},
	{"SubjectArea", 0x9214, TypeShort, false},
	{"MakerNote", 0x927c, TypeUndefined, false},
	{"UserComment", 0x9286, TypeUndefined, false},
	{"SubSecTime", 0x9290, TypeASCII, false},
	{"SubSecTimeOriginal", 0x9291, TypeASCII, false},
	{"SubSecTimeDigitized", 0x9292, TypeASCII, false},
	{"Temperature", 0x9400, TypeSRational, false},
	{"Humidity", 0x9401, TypeRational, false},
	{"Pressure", 0x9402, TypeRational, false},
	{"WaterDepth", 0x9403, TypeSRational, false},
	{"Acceleration", 0x9404, TypeRational, false},
	{"CameraElevationAngle", 0x9405, TypeSRational, false},
	{"FlashpixVersion", 0xa000, TypeUndefined, false},
	{"ColorSpace", 0xa001, TypeShort, false},
	{"PixelXDimension", 0xa002, TypeLong, false},
	{"PixelYDimension", 0xa003, TypeLong, false},
	{"RelatedSoundFile", 0xa004, TypeASCII, false},
	{"InteroperabilityTag", 0xa005, TypeLong, true},
	{"FlashEnergy", 0xa20b, TypeRational, false},
	{"SpatialFrequencyResponse", 0xa20c, TypeUndefined, false},
	{"FocalPlaneXResolution", 0xa20e, TypeRational, false},
	{"FocalPlaneYResolution", 0xa20f, TypeRational, false},
	{"FocalPlaneResolutionUnit", 0xa210, TypeShort, false},
	{"SubjectLocation", 0xa214, TypeShort, false},
	{"ExposureIndex", 0xa215, TypeRational, false},
	{"SensingMethod", 0xa217, TypeShort, false},
	{"FileSource", 0xa300, TypeUndefined, false},
	{"SceneType", 0xa301, TypeUndefined, false},
	{"CFAPattern", 0xa302, TypeUndefined, false},
	{"CustomRendered", 0xa401, TypeShort, false},
	{"ExposureMode", 0xa402, TypeShort, false},
	{"WhiteBalance", 0xa403, TypeShort, false},
	{"DigitalZoomRatio", 0xa404, TypeRational, false},
	{"FocalLengthIn35mmFilm", 0xa405, TypeShort, false},
	{"SceneCaptureType", 0xa406, TypeShort, false},
	{"GainControl", 0xa407, TypeShort, false},
	{"Contrast", 0xa408, TypeShort, false},
	{"Saturation", 0xa409, TypeShort, false},
	{"Sharpness", 0xa40a, TypeShort, false},
	{"DeviceSettingDescription", 0xa40b, TypeUndefined, false},
	{"SubjectDistanceRange", 0xa40c, TypeShort, false},
	{"ImageUniqueID", 0xa420, TypeASCII, false},
	{"CameraOwnerName", 0xa430, TypeASCII, false},
	{"BodySerialNumber", 0xa431, TypeASCII, false},
	{"LensSpecification", 0xa432, TypeRational, false},
	{"LensMake", 0xa433, TypeASCII, false},
	{"LensModel", 0xa434, TypeASCII, false},
	{"LensSerialNumber", 0xa435, TypeASCII, false},
	{"CompositeImage", 0xa460, TypeShort, false},
	{"SourceImageNumberOfCompositeImage", 0xa461, TypeShort, false},
	{"SourceExposureTimesOfCompositeImage", 0xa462, TypeUndefined, false},
	{"Gamma", 0xa500, TypeRational, false},
}

var gpsTags = []tagEntry{
	{"GPSVersionID", 0x0000, TypeByte, false},
	{"GPSLatitudeRef", 0x0001, TypeASCII, false},
	{"GPSLatitude", 0x0002, TypeRational, false},
	{"GPSLongitudeRef", 0x0003, TypeASCII, false},
	{"GPSLongitude", 0x0004, TypeRational, false},
	{"GPSAltitudeRef", 0x0005, TypeByte, false},
	{"GPSAltitude", 0x0006, TypeRational, false},
	{"GPSTimeStamp", 0x0007, TypeRational, false},
	{"GPSSatellites", 0x0008, TypeASCII, false},
	{"GPSStatus", 0x0009, TypeASCII, false},
	{"GPSMeasureMode", 0x000a, TypeASCII, false},
	{"GPSDOP", 0x000b, TypeRational, false},
	{"GPSSpeedRef", 0x000c, TypeASCII, false},
	{"GPSSpeed", 0x000d, TypeRational, false},
	{"GPSTrackRef", 0x000e, TypeASCII, false},
	{"GPSTrack", 0x000f, TypeRational, false},
	{"GPSImgDirectionRef", 0x0010, TypeASCII, false},
	{"GPSImgDirection", 0x0011, TypeRational, false},
	{"GPSMapDatum", 0x0012, TypeASCII, false},
	{"GPSDestLatitudeRef", 0x0013, TypeASCII, false},
	{"GPSDestLatitude", 0x0014, TypeRational, false},
	{"GPSDestLongitudeRef", 0x0015, TypeASCII, false},
	{"GPSDestLongitude", 0x0016, TypeRational, false},
	{"GPSDestBearingRef", 0x0017, TypeASCII, false},
	{"GPSDestBearing", 0x0018, TypeRational, false},
	{"GPSDestDistanceRef", 0x0019, TypeASCII, false},
	{"GPSDestDistance", 0x001a, TypeRational, false},
	{"GPSProcessingMethod", 0x001b, TypeUndefined, false},
	{"GPSAreaInformation", 0x001c, TypeUndefined, false},
	{"GPSDateStamp", 0x001d, TypeASCII, false},
	{"GPSDifferential", 0x001e, TypeShort, false},
	{"GPSHPositioningError", 0x001f, TypeRational, false},
}

var interopTags = []tagEntry{
	{"InteroperabilityIndex", 0x0001, TypeASCII, false},
	{"InteroperabilityVersion", 0x0002, TypeUndefined, false},
	{"RelatedImageFileFormat", 0x1000, TypeASCII, false},
	{"RelatedImageWidth", 0x1001, TypeLong, false},
	{"RelatedImageLength", 0x1002, TypeLong, false},
}

// Alternative names accepted on input, mapped to the catalog name.
var tagAliases = map[string]string{
	"PhotographicSensitivity": "ISOSpeedRatings",
	"ExifVersionID":           "ExifVersion",
	"ExifIFDPointer":          "ExifTag",
	"GPSInfoIFDPointer":       "GPSTag",
	"InteroperabilityIFD":     "InteroperabilityTag",
}

// Date-time tags, stored as ASCII "YYYY:MM:DD HH:MM:SS".
var dateTimeTags = map[string]bool{
	"DateTime":          true,
	"DateTimeOriginal":  true,
	"DateTimeDigitized": true,
}
