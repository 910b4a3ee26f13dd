package geocode

import "strings"

// dmaByState：州代码 -> 覆盖该州的 DMA 名称（首位为该州主要市场，跨州 DMA 会在多个州重复出现）
var dmaByState = map[string][]string{
	"AL": {"BIRMINGHAM (ANN & TUSC)", "MONTGOMERY (SELMA)", "MOBILE - PENSACOLA (FT WALT)", "HUNTSVILLE - DECATUR (FLOR)", "DOTHAN", "COLUMBUS, GA", "MERIDIAN", "GREENWOOD - GREENVILLE"},
	"AK": {"ANCHORAGE", "JUNEAU", "FAIRBANKS"},
	"AZ": {"PHOENIX (PRESCOTT)", "TUCSON (SIERRA VISTA)", "YUMA - EL CENTRO", "FLAGSTAFF"},
	"AR": {"LITTLE ROCK - PINE BLUFF", "FT. SMITH - FAY - SPRNGDL - RGRS", "JONESBORO", "MONROE - EL DORADO", "SHREVEPORT", "MEMPHIS"},
	"CA": {"LOS ANGELES", "SAN FRANCISCO - OAK - SAN JOSE", "SAN DIEGO", "SACRAMENTO - STKTN - MODESTO", "FRESNO - VISALIA", "BAKERSFIELD", "PALM SPRINGS", "MONTEREY - SALINAS", "SANTA BARBARA - SANMAR - SANLUOB", "CHICO - REDDING", "EUREKA", "YUMA - EL CENTRO"},
	"CO": {"DENVER", "COLORADO SPRINGS - PUEBLO", "GRAND JUNCTION - MONTROSE"},
	"CT": {"HARTFORD & NEW HAVEN", "BOSTON (MANCHESTER)", "NEW YORK"},
	"DE": {"PHILADELPHIA", "SALISBURY"},
	"FL": {"MIAMI - FT. LAUDERDALE", "TAMPA - ST. PETE (SARASOTA)", "ORLANDO - DAYTONA BCH - MELBRN", "WEST PALM BEACH - FT. PIERCE", "JACKSONVILLE", "FT. MYERS - NAPLES", "MOBILE - PENSACOLA (FT WALT)", "TALLAHASSEE - THOMASVILLE", "GAINESVILLE", "PANAMA CITY"},
	"GA": {"ATLANTA", "SAVANNAH", "MACON", "COLUMBUS, GA", "ALBANY, GA", "AUGUSTA", "TALLAHASSEE - THOMASVILLE", "CHATTANOOGA", "JACKSONVILLE", "GREENVILLE - N. BERN - WASHNGTN"},
	"HI": {"HONOLULU"},
	"ID": {"BOISE", "IDAHO FALLS - POCATELLO", "TWIN FALLS", "SPOKANE", "SALT LAKE CITY"},
	"IL": {"CHICAGO", "CHAMPAIGN & SPRNGFLD - DECATUR", "PEORIA - BLOOMINGTON", "ROCKFORD", "DAVENPORT - R. ISLAND - MOLINE", "ST. LOUIS", "PADUCAH - CAPE GIRAR D - HARSBG", "QUINCY - HANNIBAL - KEOKUK"},
	"IN": {"INDIANAPOLIS", "CHICAGO", "FORT WAYNE", "SOUTH BEND - ELKHART", "TERRE HAUTE", "LOUISVILLE", "EVANSVILLE", "LAFAYETTE, IN", "CINCINNATI"},
	"IA": {"DES MOINES - AMES", "CEDAR RAPIDS - WTRLO - IWC&DUB", "DAVENPORT - R. ISLAND - MOLINE", "SIOUX CITY", "OMAHA", "OTTUMWA - KIRKSVILLE", "ROCHESTER - MASON CITY - AUSTIN", "SIOUX FALLS (MITCHELL)", "QUINCY - HANNIBAL - KEOKUK"},
	"KS": {"KANSAS CITY", "WICHITA - HUTCHINSON PLUS", "TOPEKA", "JOPLIN - PITTSBURG"},
	"KY": {"LOUISVILLE", "LEXINGTON", "CINCINNATI", "NASHVILLE", "BOWLING GREEN", "CHARLESTON - HUNTINGTON", "PADUCAH - CAPE GIRAR D - HARSBG", "KNOXVILLE", "TRI - CITIES, TN - VA"},
	"LA": {"NEW ORLEANS", "SHREVEPORT", "BATON ROUGE", "LAFAYETTE, LA", "LAKE CHARLES", "MONROE - EL DORADO", "ALEXANDRIA, LA"},
	"ME": {"PORTLAND - AUBURN", "BANGOR", "PRESQUE ISLE", "BOSTON (MANCHESTER)"},
	"MD": {"BALTIMORE", "WASHINGTON, DC (HAGRSTWN)", "SALISBURY"},
	"MA": {"BOSTON (MANCHESTER)", "PROVIDENCE - NEW BEDFORD", "SPRINGFIELD - HOLYOKE", "ALBANY - SCHENECTADY - TROY"},
	"MI": {"DETROIT", "GRAND RAPIDS - KALMZOO - B. CRK", "FLINT - SAGINAW - BAY CITY", "TRAVERSE CITY - CADILLAC", "LANSING", "MARQUETTE", "ALPENA"},
	"MN": {"MINNEAPOLIS - ST. PAUL", "DULUTH - SUPERIOR", "MANKATO", "ROCHESTER - MASON CITY - AUSTIN", "FARGO - VALLEY CITY", "LA CROSSE - EAU CLAIRE"},
	"MS": {"JACKSON, MS", "GREENWOOD - GREENVILLE", "COLUMBUS - TUPELO - WEST POINT", "HATTIESBURG - LAUREL", "BILOXI - GULFPORT", "MERIDIAN", "MEMPHIS"},
	"MO": {"ST. LOUIS", "KANSAS CITY", "SPRINGFIELD, MO", "COLUMBIA - JEFFERSON CITY", "JOPLIN - PITTSBURG", "PADUCAH - CAPE GIRAR D - HARSBG", "QUINCY - HANNIBAL - KEOKUK", "OTTUMWA - KIRKSVILLE", "ST. JOSEPH"},
	"MT": {"BILLINGS", "MISSOULA", "GREAT FALLS", "BUTTE - BOZEMAN", "HELENA"},
	"NE": {"OMAHA", "LINCOLN & HSTNGS - KRNY", "NORTH PLATTE", "CHEYENNE - SCOTTSBLUF", "SIOUX CITY", "SIOUX FALLS (MITCHELL)"},
	"NV": {"LAS VEGAS", "RENO", "SALT LAKE CITY"},
	"NH": {"BOSTON (MANCHESTER)", "PORTLAND - AUBURN", "BURLINGTON - PLATTSBRG"},
	"NJ": {"NEW YORK", "PHILADELPHIA"},
	"NM": {"ALBUQUERQUE - SANTA FE", "EL PASO (LAS CRUCES)", "AMARILLO"},
	"NY": {"NEW YORK", "BUFFALO", "ROCHESTER, NY", "ALBANY - SCHENECTADY - TROY", "SYRACUSE", "BINGHAMTON", "UTICA", "WATERTOWN", "ELMIRA (CORNING)", "BURLINGTON - PLATTSBRG"},
	"NC": {"CHARLOTTE", "RALEIGH - DURHAM (FAYETVLLE)", "GREENSBORO - H. POINT - W. SALEM", "GREENVILLE - N. BERN - WASHNGTN", "WILMINGTON", "GREENVILLE - SPART - ASHEVLL - ANDM", "MYRTLE BEACH - FLORENCE"},
	"ND": {"FARGO - VALLEY CITY", "MINOT - BISMARCK - DICKINSON"},
	"OH": {"CLEVELAND - AKRON (CANTON)", "COLUMBUS, OH", "CINCINNATI", "DAYTON", "TOLEDO", "YOUNGSTOWN", "LIMA", "ZANESVILLE", "WHEELING - STEUBENVILLE", "PARKERSBURG"},
	"OK": {"OKLAHOMA CITY", "TULSA", "WICHITA FALLS & LAWTON", "SHERMAN - ADA", "AMARILLO", "FT. SMITH - FAY - SPRNGDL - RGRS"},
	"OR": {"PORTLAND, OR", "EUGENE", "BEND, OR", "MEDFORD - KLAMATH FALLS"},
	"PA": {"PHILADELPHIA", "PITTSBURGH", "HARRISBURG - LNCSTR - LEB - YORK", "WILKES BARRE - SCRANTON", "ERIE", "JOHNSTOWN - ALTOONA", "CLEVELAND - AKRON (CANTON)", "YOUNGSTOWN", "WHEELING - STEUBENVILLE"},
	"RI": {"PROVIDENCE - NEW BEDFORD", "BOSTON (MANCHESTER)"},
	"SC": {"CHARLOTTE", "COLUMBIA, SC", "CHARLESTON, SC", "GREENVILLE - SPART - ASHEVLL - ANDM", "MYRTLE BEACH - FLORENCE", "AUGUSTA", "SAVANNAH"},
	"SD": {"SIOUX FALLS (MITCHELL)", "RAPID CITY", "MINOT - BISMARCK - DICKINSON"},
	"TN": {"NASHVILLE", "MEMPHIS", "KNOXVILLE", "CHATTANOOGA", "TRI - CITIES, TN - VA", "JACKSON, TN"},
	"TX": {"DALLAS - FT. WORTH", "HOUSTON", "SAN ANTONIO", "AUSTIN", "HARLINGEN - WSLCO - BRNSVL - MCA", "EL PASO (LAS CRUCES)", "WACO - TEMPLE - BRYAN", "CORPUS CHRISTI", "AMARILLO", "LUBBOCK", "TYLER - LONGVIEW (LFKN & NCGD)", "WICHITA FALLS & LAWTON", "ODESSA - MIDLAND", "BEAUMONT - PORT ARTHUR", "ABILENE - SWEETWATER", "SAN ANGELO", "LAREDO", "SHERMAN - ADA", "VICTORIA", "SHREVEPORT"},
	"UT": {"SALT LAKE CITY"},
	"VT": {"BURLINGTON - PLATTSBRG", "BOSTON (MANCHESTER)", "ALBANY - SCHENECTADY - TROY"},
	"VA": {"WASHINGTON, DC (HAGRSTWN)", "NORFOLK - PORTSMTH - NEWPT NWS", "RICHMOND - PETERSBURG", "ROANOKE - LYNCHBURG", "TRI - CITIES, TN - VA", "CHARLOTTESVILLE", "HARRISONBURG", "BLUEFIELD - BECKLEY - OAK HILL"},
	"WA": {"SEATTLE - TACOMA", "SPOKANE", "YAKIMA - PASCO - RCHLND - KNNWCK", "PORTLAND, OR"},
	"WV": {"CHARLESTON - HUNTINGTON", "WHEELING - STEUBENVILLE", "PITTSBURGH", "BLUEFIELD - BECKLEY - OAK HILL", "CLARKSBURG - WESTON", "PARKERSBURG", "WASHINGTON, DC (HAGRSTWN)"},
	"WI": {"MILWAUKEE", "GREEN BAY - APPLETON", "MADISON", "LA CROSSE - EAU CLAIRE", "WAUSAU - RHINELANDER", "DULUTH - SUPERIOR", "MINNEAPOLIS - ST. PAUL"},
	"WY": {"DENVER", "CASPER - RIVERTON", "CHEYENNE - SCOTTSBLUF", "IDAHO FALLS - POCATELLO"},
	"DC": {"WASHINGTON, DC (HAGRSTWN)"},
}

// SubRegionsFor：州代码 -> 有序 DMA 列表（返回副本；未知代码返回空切片）
func SubRegionsFor(code string) []string {
	src := dmaByState[strings.ToUpper(strings.TrimSpace(code))]
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// StatesForSubRegion：DMA 覆盖到的全部州代码，按州表顺序
func StatesForSubRegion(name string) []string {
	target := strings.ToUpper(strings.TrimSpace(name))
	var out []string
	if target == "" {
		return out
	}
	for _, s := range states {
		for _, d := range dmaByState[s.Code] {
			if d == target {
				out = append(out, s.Code)
				break
			}
		}
	}
	return out
}

// PrimaryStateForSubRegion：DMA 的主归属州（州表顺序中第一个包含它的州）
func PrimaryStateForSubRegion(name string) (string, bool) {
	all := StatesForSubRegion(name)
	if len(all) == 0 {
		return "", false
	}
	return all[0], true
}
