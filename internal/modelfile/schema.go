package modelfile

// fileRoot is the full top-level schema of a model description file.
type fileRoot struct {
	Model     *modelBlock      `hcl:"model,block"`
	Packages  []*packageBlock  `hcl:"package,block"`
	Types     []*typeBlock     `hcl:"type,block"`
	Enums     []*enumBlock     `hcl:"enumeration,block"`
	Constants []*constantBlock `hcl:"constant,block"`
	Sensors   []*sensorBlock   `hcl:"sensor,block"`
	Operators []*operatorBlock `hcl:"operator,block"`
}

type modelBlock struct {
	Name string `hcl:"name,label"`
}

type packageBlock struct {
	Name  string `hcl:"name,label"`
	Owner string `hcl:"package,optional"`
	Unit  string `hcl:"unit,optional"`
}

// typeBlock declares a named type: either an alias of another type or a
// structure built from field blocks. Exactly one form must be used.
type typeBlock struct {
	Name     string        `hcl:"name,label"`
	Owner    string        `hcl:"package,optional"`
	Unit     string        `hcl:"unit,optional"`
	Imported bool          `hcl:"imported,optional"`
	Alias    string        `hcl:"alias,optional"`
	Fields   []*fieldBlock `hcl:"field,block"`
}

type fieldBlock struct {
	Name string `hcl:"name,label"`
	Type string `hcl:"type"`
}

type enumBlock struct {
	Name   string   `hcl:"name,label"`
	Owner  string   `hcl:"package,optional"`
	Unit   string   `hcl:"unit,optional"`
	Values []string `hcl:"values"`
}

type constantBlock struct {
	Name  string `hcl:"name,label"`
	Owner string `hcl:"package,optional"`
	Unit  string `hcl:"unit,optional"`
	Type  string `hcl:"type"`
	Value string `hcl:"value"`
}

type sensorBlock struct {
	Name  string `hcl:"name,label"`
	Owner string `hcl:"package,optional"`
	Unit  string `hcl:"unit,optional"`
	Type  string `hcl:"type"`
}

type operatorBlock struct {
	Name      string           `hcl:"name,label"`
	Owner     string           `hcl:"package,optional"`
	Unit      string           `hcl:"unit,optional"`
	Textual   bool             `hcl:"textual,optional"`
	Imported  bool             `hcl:"imported,optional"`
	Inputs    []*varBlock      `hcl:"input,block"`
	Outputs   []*varBlock      `hcl:"output,block"`
	Locals    []*varBlock      `hcl:"local,block"`
	Signals   []*signalBlock   `hcl:"signal,block"`
	Equations []*equationBlock `hcl:"equation,block"`
}

type varBlock struct {
	Name string `hcl:"name,label"`
	Type string `hcl:"type"`
}

type signalBlock struct {
	Name string `hcl:"name,label"`
}

// equationBlock defines the named flows on the left from the textual
// expression on the right. A left side of "_" discards that flow.
type equationBlock struct {
	Define []string `hcl:"define"`
	Expr   string   `hcl:"expr"`
}
