package hcl

import "github.com/hashicorp/hcl/v2"

var fileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "pipeline", LabelNames: []string{"name"}},
	},
}

var stepBlocks = []hcl.BlockHeaderSchema{
	{Type: "task", LabelNames: []string{"name"}},
	{Type: "combo", LabelNames: []string{"name"}},
}

var pipelineSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "input"},
		{Name: "timeout"},
	},
	Blocks: stepBlocks,
}

var taskSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "runner", Required: true},
		{Name: "weight"},
		{Name: "block"},
		{Name: "show"},
		{Name: "reload_window"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "arguments"},
	},
}

var comboSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "weight"},
		{Name: "block"},
		{Name: "show"},
	},
	Blocks: stepBlocks,
}
