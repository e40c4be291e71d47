package parser

// File is the content of one *.bean.yaml file.
type File struct {
	Beans []*Description `yaml:"beans"`
}

// Annotations maps annotation name to its members.
type Annotations map[string]map[string]string

// Description is one bean as written in a description file. Points are
// replayed in the order: entry point, fields, setters, methods, builders,
// post-construct, pre-destroy, executable methods.
type Description struct {
	Type        string       `yaml:"type"`
	Name        string       `yaml:"name,omitempty"`
	Interface   bool         `yaml:"interface,omitempty"`
	SuperType   string       `yaml:"super_type,omitempty"`
	Interfaces  []string     `yaml:"interfaces,omitempty"`
	Validated   bool         `yaml:"validated,omitempty"`
	Annotations Annotations  `yaml:"annotations,omitempty"`
	Constructor *Constructor `yaml:"constructor,omitempty"`
	Factory     *Factory     `yaml:"factory,omitempty"`

	Fields        []*Field              `yaml:"fields,omitempty"`
	Setters       []*Setter             `yaml:"setters,omitempty"`
	Methods       []*Method             `yaml:"methods,omitempty"`
	Builders      []*BuilderDescription `yaml:"builders,omitempty"`
	PostConstruct []*Method             `yaml:"post_construct,omitempty"`
	PreDestroy    []*Method             `yaml:"pre_destroy,omitempty"`
	Executables   []*Executable         `yaml:"executables,omitempty"`

	RequiresMethodProcessing bool `yaml:"requires_method_processing,omitempty"`
}

type Generic struct {
	Name     string     `yaml:"name"`
	Type     string     `yaml:"type"`
	Generics []*Generic `yaml:"generics,omitempty"`
}

type Argument struct {
	Name        string      `yaml:"name"`
	Type        string      `yaml:"type"`
	Qualifier   string      `yaml:"qualifier,omitempty"`
	Annotations Annotations `yaml:"annotations,omitempty"`
	Generics    []*Generic  `yaml:"generics,omitempty"`
}

type Constructor struct {
	Reflection  bool        `yaml:"reflection,omitempty"`
	Annotations Annotations `yaml:"annotations,omitempty"`
	Arguments   []*Argument `yaml:"arguments,omitempty"`
}

type Factory struct {
	Type        string      `yaml:"type"`
	Method      string      `yaml:"method"`
	Annotations Annotations `yaml:"annotations,omitempty"`
	Arguments   []*Argument `yaml:"arguments,omitempty"`
}

type Field struct {
	Name        string      `yaml:"name"`
	Type        string      `yaml:"type"`
	Declaring   string      `yaml:"declaring,omitempty"`
	Qualifier   string      `yaml:"qualifier,omitempty"`
	Annotations Annotations `yaml:"annotations,omitempty"`
	Generics    []*Generic  `yaml:"generics,omitempty"`
	Reflection  bool        `yaml:"reflection,omitempty"`
	Value       bool        `yaml:"value,omitempty"`
	Optional    bool        `yaml:"optional,omitempty"`
}

type Setter struct {
	Name        string      `yaml:"name"`
	Field       string      `yaml:"field,omitempty"`
	Type        string      `yaml:"type"`
	Declaring   string      `yaml:"declaring,omitempty"`
	Qualifier   string      `yaml:"qualifier,omitempty"`
	Annotations Annotations `yaml:"annotations,omitempty"`
	Generics    []*Generic  `yaml:"generics,omitempty"`
	Reflection  bool        `yaml:"reflection,omitempty"`
	Value       bool        `yaml:"value,omitempty"`
	Optional    bool        `yaml:"optional,omitempty"`
}

type Method struct {
	Name        string      `yaml:"name"`
	Declaring   string      `yaml:"declaring,omitempty"`
	Returns     string      `yaml:"returns,omitempty"`
	Annotations Annotations `yaml:"annotations,omitempty"`
	Arguments   []*Argument `yaml:"arguments,omitempty"`
	Reflection  bool        `yaml:"reflection,omitempty"`
}

type BuilderDescription struct {
	Type        string      `yaml:"type"`
	Accessor    string      `yaml:"accessor"`
	ViaMethod   bool        `yaml:"via_method,omitempty"`
	Annotations Annotations `yaml:"annotations,omitempty"`
	Properties  []*Property `yaml:"properties"`
}

// Property is one delegate method fed from configuration. An empty Param
// declares a flag method taking no arguments.
type Property struct {
	Method              string     `yaml:"method"`
	Prefix              string     `yaml:"prefix,omitempty"`
	ConfigurationPrefix string     `yaml:"configuration_prefix,omitempty"`
	Returns             string     `yaml:"returns,omitempty"`
	Param               string     `yaml:"param,omitempty"`
	Generics            []*Generic `yaml:"generics,omitempty"`
	Duration            bool       `yaml:"duration,omitempty"`
}

type Executable struct {
	Name           string      `yaml:"name"`
	Declaring      string      `yaml:"declaring,omitempty"`
	Returns        string      `yaml:"returns,omitempty"`
	ReturnGenerics []*Generic  `yaml:"return_generics,omitempty"`
	Annotations    Annotations `yaml:"annotations,omitempty"`
	Arguments      []*Argument `yaml:"arguments,omitempty"`
}
